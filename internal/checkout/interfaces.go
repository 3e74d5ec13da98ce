package checkout

import (
	"context"

	"github.com/bodenhaus/checkout-backend/pkg/db/models"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

// Ledger is the slice of the order ledger the router needs.
type Ledger interface {
	CreateOrder(ctx context.Context, input woocommerce.CreateOrderInput) (*woocommerce.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*woocommerce.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, update woocommerce.StatusUpdate) (*woocommerce.Order, error)
	AddOrderNote(ctx context.Context, orderID int64, note string) error
}

// ReferenceSaver records the provider reference assigned to a new order.
type ReferenceSaver interface {
	SaveReference(ctx context.Context, ref *models.OrderReference) error
}
