package woocommerce

import (
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Address carries the billing/shipping fields forwarded to the ledger.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Order is the canonical view of a ledger order as this engine sees it.
// Amount and currency are fixed at creation; Version advances on every
// status write and guards optimistic updates.
type Order struct {
	ID                int64
	Status            enums.OrderStatus
	Total             decimal.Decimal
	Currency          string
	PaymentMethod     enums.PaymentMethod
	ProviderReference string
	Version           int64
	BillingEmail      string
}

// CreateOrderInput is the validated checkout payload forwarded to the ledger.
type CreateOrderInput struct {
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod enums.PaymentMethod
	Billing       Address
	Shipping      Address
}

// StatusUpdate describes an optimistic status write. ProviderReference, when
// non-empty, is attached in the same write and is immutable once set.
type StatusUpdate struct {
	Status            enums.OrderStatus
	ExpectedVersion   int64
	ProviderReference string
}

// wire structs for the WooCommerce REST v3 order shape (subset).

type wooMeta struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type wooFeeLine struct {
	Name  string `json:"name"`
	Total string `json:"total"`
}

type wooOrder struct {
	ID            int64        `json:"id"`
	Status        string       `json:"status"`
	Currency      string       `json:"currency"`
	Total         string       `json:"total"`
	PaymentMethod string       `json:"payment_method"`
	Billing       Address      `json:"billing"`
	MetaData      []wooMeta    `json:"meta_data"`
	FeeLines      []wooFeeLine `json:"fee_lines,omitempty"`
}

type wooOrderCreate struct {
	Status        string       `json:"status"`
	Currency      string       `json:"currency"`
	PaymentMethod string       `json:"payment_method"`
	SetPaid       bool         `json:"set_paid"`
	Billing       Address      `json:"billing"`
	Shipping      Address      `json:"shipping"`
	FeeLines      []wooFeeLine `json:"fee_lines"`
	MetaData      []wooMeta    `json:"meta_data"`
}

type wooOrderUpdate struct {
	Status   string    `json:"status"`
	MetaData []wooMeta `json:"meta_data"`
}

type wooOrderNote struct {
	Note         string `json:"note"`
	CustomerNote bool   `json:"customer_note"`
}
