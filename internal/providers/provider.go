// Package providers defines the contract every payment rail implements and
// the concrete adapters behind it. Adapters translate between the gateway's
// API and the neutral start/capture results the checkout and reconciliation
// services operate on; they never touch the order ledger themselves.
package providers

import (
	"context"

	"github.com/bodenhaus/checkout-backend/pkg/enums"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

// NextActionType tells the storefront what to do after a payment session
// has been opened.
type NextActionType string

const (
	// NextActionRedirect sends the customer to the gateway's hosted page.
	NextActionRedirect NextActionType = "redirect"
	// NextActionNone means no customer interaction is needed; the order
	// waits for an out-of-band settlement signal.
	NextActionNone NextActionType = "none"
)

// NextAction is the storefront instruction attached to a started session.
type NextAction struct {
	Type NextActionType `json:"type"`
	URL  string         `json:"url,omitempty"`
}

// StartResult is what a successful StartPayment yields: the provider's
// reference for the session and the instruction for the customer.
type StartResult struct {
	Reference  string
	NextAction NextAction
}

// CaptureOutcome reports the terminal state of a capture attempt.
// AlreadyCaptured distinguishes a race with a concurrent capture, which is
// still a success for the customer, from a first-time capture.
type CaptureOutcome struct {
	Reference       string
	Succeeded       bool
	AlreadyCaptured bool
}

// Adapter opens a payment session for an order on one payment rail.
type Adapter interface {
	Method() enums.PaymentMethod
	StartPayment(ctx context.Context, order *woocommerce.Order) (*StartResult, error)
}

// Capturer is implemented by rails whose settlement is pulled by us rather
// than pushed by the gateway.
type Capturer interface {
	Capture(ctx context.Context, reference string) (*CaptureOutcome, error)
}
