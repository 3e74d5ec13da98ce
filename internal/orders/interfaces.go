package orders

import (
	"context"

	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

// LedgerReader is the slice of the ledger client this package needs.
type LedgerReader interface {
	GetOrder(ctx context.Context, orderID int64) (*woocommerce.Order, error)
}
