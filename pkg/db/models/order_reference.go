package models

import (
	"time"

	"github.com/bodenhaus/checkout-backend/pkg/enums"
)

// OrderReference is the typed mapping from a provider-assigned reference
// (Stripe Checkout Session id, PayPal order id) back to the ledger order id.
// Written exactly once when the payment attempt is initiated; the reconciler
// resolves inbound events through this table, never through free-form
// payload fields.
type OrderReference struct {
	ProviderReference string              `gorm:"column:provider_reference;primaryKey;size:128"`
	OrderID           int64               `gorm:"column:order_id;not null;index"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;size:32;not null"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the GORM default.
func (OrderReference) TableName() string {
	return "order_references"
}
