package stripepay

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/bodenhaus/checkout-backend/internal/providers"
	"github.com/bodenhaus/checkout-backend/pkg/config"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

// SessionCreator is the slice of the Stripe client this adapter needs.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Adapter opens hosted Checkout Sessions for card payments. The session id
// becomes the order's provider reference; settlement arrives later through
// the webhook surface.
type Adapter struct {
	stripe     SessionCreator
	successURL string
	cancelURL  string
}

func NewAdapter(stripeClient SessionCreator, cfg config.StripeConfig) *Adapter {
	return &Adapter{
		stripe:     stripeClient,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

func (a *Adapter) Method() enums.PaymentMethod {
	return enums.PaymentMethodCard
}

func (a *Adapter) StartPayment(ctx context.Context, order *woocommerce.Order) (*providers.StartResult, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(a.successURL),
		CancelURL:  stripe.String(a.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(order.Currency)),
					UnitAmount: stripe.Int64(order.Total.Shift(2).IntPart()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Order %d", order.ID)),
					},
				},
			},
		},
	}
	params.AddMetadata("order_id", strconv.FormatInt(order.ID, 10))

	sess, err := a.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating stripe checkout session")
	}

	return &providers.StartResult{
		Reference: sess.ID,
		NextAction: providers.NextAction{
			Type: providers.NextActionRedirect,
			URL:  sess.URL,
		},
	}, nil
}
