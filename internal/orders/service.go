package orders

import (
	"context"
	"strings"

	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
)

// Status is the customer-facing view of an order's payment progress.
type Status struct {
	OrderID  int64             `json:"order_id"`
	Status   enums.OrderStatus `json:"status"`
	Total    string            `json:"total"`
	Currency string            `json:"currency"`
}

type Service struct {
	ledger LedgerReader
	logger *logger.Logger
}

func NewService(ledger LedgerReader, logg *logger.Logger) *Service {
	return &Service{ledger: ledger, logger: logg}
}

// StatusLookup returns the order's status when the supplied billing email
// matches the ledger record. A wrong email reports not-found rather than
// forbidden so the endpoint cannot be used to probe which order ids exist.
func (s *Service) StatusLookup(ctx context.Context, orderID int64, email string) (*Status, error) {
	order, err := s.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(strings.TrimSpace(email), order.BillingEmail) {
		s.logger.Warn(s.logger.WithOrderID(ctx, orderID), "order lookup with mismatched email")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	return &Status{
		OrderID:  order.ID,
		Status:   order.Status,
		Total:    order.Total.StringFixed(2),
		Currency: order.Currency,
	}, nil
}
