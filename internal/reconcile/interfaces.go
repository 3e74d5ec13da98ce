package reconcile

import (
	"context"

	"github.com/bodenhaus/checkout-backend/internal/providers"
	"github.com/bodenhaus/checkout-backend/pkg/db/models"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

// Ledger is the slice of the order ledger the reconciler writes through.
type Ledger interface {
	GetOrder(ctx context.Context, orderID int64) (*woocommerce.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, update woocommerce.StatusUpdate) (*woocommerce.Order, error)
	AddOrderNote(ctx context.Context, orderID int64, note string) error
}

// Resolver maps provider references back to ledger order ids.
type Resolver interface {
	FindByReference(ctx context.Context, providerReference string) (*models.OrderReference, error)
}

// Journaler appends processed-signal rows to the event journal.
type Journaler interface {
	RecordEvent(ctx context.Context, event *models.PaymentEvent) error
}

// Guard is the effectively-once ledger for event ids.
type Guard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// Capturer finalizes pull-based settlements, currently only PayPal.
type Capturer interface {
	Capture(ctx context.Context, reference string) (*providers.CaptureOutcome, error)
}
