package reconcile

import (
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
)

const providerStripe = "stripe"

// SignalFromStripeEvent translates a verified Stripe webhook event into a
// neutral confirmation signal. Event types outside the Checkout Session
// lifecycle return nil; the delivery is acknowledged without processing.
func SignalFromStripeEvent(event *stripe.Event) (*Signal, error) {
	var intent enums.TransitionIntent
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		intent = enums.IntentPaymentSucceeded
	case stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		intent = enums.IntentPaymentFailed
	default:
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding checkout session payload")
	}
	if session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session payload has no id")
	}

	// completed fires for delayed-notification methods before the money
	// moves; the async_payment_succeeded event settles those later.
	if event.Type == stripe.EventTypeCheckoutSessionCompleted &&
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return nil, nil
	}

	received := time.Unix(event.Created, 0).UTC()
	if event.Created <= 0 {
		received = time.Now().UTC()
	}

	return &Signal{
		EventID:    event.ID,
		EventType:  string(event.Type),
		Provider:   providerStripe,
		Reference:  session.ID,
		Intent:     intent,
		ReceivedAt: received,
	}, nil
}
