package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/bodenhaus/checkout-backend/internal/providers"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

// CreateOrderRequest is the storefront's checkout submission.
type CreateOrderRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Currency      string          `json:"currency" validate:"required,iso4217"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=bank_transfer card paypal"`
	Billing       AddressRequest  `json:"billing" validate:"required"`
	Shipping      *AddressRequest `json:"shipping"`
}

// AddressRequest mirrors the ledger's billing/shipping shape.
type AddressRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Address1  string `json:"address_1" validate:"required"`
	Address2  string `json:"address_2"`
	City      string `json:"city" validate:"required"`
	Postcode  string `json:"postcode" validate:"required"`
	Country   string `json:"country" validate:"required,iso3166_1_alpha2"`
}

// CreateOrderResponse tells the storefront where the customer goes next.
type CreateOrderResponse struct {
	OrderID    int64                `json:"order_id"`
	Status     enums.OrderStatus    `json:"status"`
	Reference  string               `json:"reference"`
	NextAction providers.NextAction `json:"next_action"`
}

func (r CreateOrderRequest) toLedgerInput() woocommerce.CreateOrderInput {
	input := woocommerce.CreateOrderInput{
		Amount:        r.Amount,
		Currency:      r.Currency,
		PaymentMethod: enums.PaymentMethod(r.PaymentMethod),
		Billing:       r.Billing.toAddress(),
	}
	if r.Shipping != nil {
		input.Shipping = r.Shipping.toAddress()
	} else {
		input.Shipping = r.Billing.toAddress()
	}
	return input
}

func (a AddressRequest) toAddress() woocommerce.Address {
	return woocommerce.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		Postcode:  a.Postcode,
		Country:   a.Country,
	}
}
