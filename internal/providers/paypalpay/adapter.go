package paypalpay

import (
	"context"
	"errors"
	"strconv"

	"github.com/plutov/paypal/v4"

	"github.com/bodenhaus/checkout-backend/internal/providers"
	"github.com/bodenhaus/checkout-backend/pkg/config"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

const issueAlreadyCaptured = "ORDER_ALREADY_CAPTURED"

// OrderAPI is the slice of the PayPal client this adapter needs.
type OrderAPI interface {
	CreateOrder(ctx context.Context, units []paypal.PurchaseUnitRequest, appContext *paypal.ApplicationContext) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureOrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
}

// Adapter drives PayPal's order create/approve/capture flow. Capture is
// pulled by us on the customer's return leg, so it must tolerate the
// customer replaying the return URL after the capture already landed.
type Adapter struct {
	paypal    OrderAPI
	returnURL string
	cancelURL string
}

func NewAdapter(paypalClient OrderAPI, cfg config.PayPalConfig) *Adapter {
	return &Adapter{
		paypal:    paypalClient,
		returnURL: cfg.ReturnURL,
		cancelURL: cfg.CancelURL,
	}
}

func (a *Adapter) Method() enums.PaymentMethod {
	return enums.PaymentMethodPayPal
}

func (a *Adapter) StartPayment(ctx context.Context, order *woocommerce.Order) (*providers.StartResult, error) {
	orderID := strconv.FormatInt(order.ID, 10)
	units := []paypal.PurchaseUnitRequest{
		{
			ReferenceID: orderID,
			CustomID:    orderID,
			Amount: &paypal.PurchaseUnitAmount{
				Currency: order.Currency,
				Value:    order.Total.StringFixed(2),
			},
		},
	}
	appContext := &paypal.ApplicationContext{
		ReturnURL: a.returnURL,
		CancelURL: a.cancelURL,
	}

	created, err := a.paypal.CreateOrder(ctx, units, appContext)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating paypal order")
	}

	approveURL := ""
	for _, link := range created.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	if approveURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paypal order has no approve link").
			WithDetails(map[string]any{"paypal_order_id": created.ID})
	}

	return &providers.StartResult{
		Reference: created.ID,
		NextAction: providers.NextAction{
			Type: providers.NextActionRedirect,
			URL:  approveURL,
		},
	}, nil
}

// Capture finalizes the approved PayPal order. A concurrent capture of the
// same order is resolved by re-querying PayPal: if the order is COMPLETED
// the race loser still reports success, just flagged AlreadyCaptured.
func (a *Adapter) Capture(ctx context.Context, reference string) (*providers.CaptureOutcome, error) {
	resp, err := a.paypal.CaptureOrder(ctx, reference)
	if err != nil {
		if isAlreadyCaptured(err) {
			return a.requery(ctx, reference)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capturing paypal order")
	}

	return &providers.CaptureOutcome{
		Reference: reference,
		Succeeded: resp.Status == "COMPLETED",
	}, nil
}

func (a *Adapter) requery(ctx context.Context, reference string) (*providers.CaptureOutcome, error) {
	order, err := a.paypal.GetOrder(ctx, reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-querying paypal order after capture race")
	}
	return &providers.CaptureOutcome{
		Reference:       reference,
		Succeeded:       order.Status == "COMPLETED",
		AlreadyCaptured: true,
	}, nil
}

func isAlreadyCaptured(err error) bool {
	var payErr *paypal.ErrorResponse
	if !errors.As(err, &payErr) {
		return false
	}
	for _, detail := range payErr.Details {
		if detail.Issue == issueAlreadyCaptured {
			return true
		}
	}
	return false
}
