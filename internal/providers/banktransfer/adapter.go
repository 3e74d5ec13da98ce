package banktransfer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bodenhaus/checkout-backend/internal/providers"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

// Adapter handles manual bank transfers. There is no gateway behind it: we
// mint the reference ourselves so the order still carries exactly one
// provider reference, and settlement is confirmed by back office staff.
type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Method() enums.PaymentMethod {
	return enums.PaymentMethodBankTransfer
}

func (a *Adapter) StartPayment(ctx context.Context, order *woocommerce.Order) (*providers.StartResult, error) {
	reference := fmt.Sprintf("bt_%d_%s", order.ID, uuid.NewString())
	return &providers.StartResult{
		Reference:  reference,
		NextAction: providers.NextAction{Type: providers.NextActionNone},
	}, nil
}
