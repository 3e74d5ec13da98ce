package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
)

const providerPayPal = "paypal"

// CaptureService finalizes PayPal settlements on the customer's return leg
// and feeds the outcome through the reconciliation pipeline. The return URL
// carries client-controlled parameters, so everything is re-verified against
// the reference map and the gateway before any ledger write.
type CaptureService struct {
	reconciler *Service
	resolver   Resolver
	capturer   Capturer
}

func NewCaptureService(reconciler *Service, resolver Resolver, capturer Capturer) *CaptureService {
	return &CaptureService{
		reconciler: reconciler,
		resolver:   resolver,
		capturer:   capturer,
	}
}

// ProcessCapture captures the approved PayPal order identified by token and
// applies the result to order orderID. The token must be mapped to exactly
// that order and that payment method; any mismatch reports not-found so the
// endpoint leaks nothing about other orders.
func (s *CaptureService) ProcessCapture(ctx context.Context, orderID int64, token string) (*Result, error) {
	ref, err := s.resolver.FindByReference(ctx, token)
	if err != nil {
		return nil, err
	}
	if ref.OrderID != orderID || ref.PaymentMethod != enums.PaymentMethodPayPal {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown provider reference").
			WithDetails(map[string]any{"order_id": orderID})
	}

	outcome, err := s.capturer.Capture(ctx, token)
	if err != nil {
		return nil, err
	}

	intent := enums.IntentPaymentSucceeded
	eventType := "paypal.capture.completed"
	if !outcome.Succeeded {
		intent = enums.IntentPaymentFailed
		eventType = "paypal.capture.declined"
	}

	// The capture is keyed by token, not by attempt: the customer reloading
	// the return page must collapse into the same event.
	signal := Signal{
		EventID:    fmt.Sprintf("capture:%s", token),
		EventType:  eventType,
		Provider:   providerPayPal,
		Reference:  token,
		Intent:     intent,
		ReceivedAt: time.Now().UTC(),
	}
	return s.reconciler.Process(ctx, signal)
}
