package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/bodenhaus/checkout-backend/api/responses"
	"github.com/bodenhaus/checkout-backend/internal/reconcile"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
)

type ReconcileService interface {
	Process(ctx context.Context, signal reconcile.Signal) (*reconcile.Result, error)
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook verifies and applies Checkout Session lifecycle events.
// A non-2xx response makes Stripe redeliver, so only faults that a
// redelivery can heal are allowed to produce one.
func StripeWebhook(svc ReconcileService, client stripeClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconcile service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeAuthentication, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeAuthentication, err, "verify signature"))
			return
		}

		signal, err := reconcile.SignalFromStripeEvent(&event)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if signal == nil {
			responses.WriteSuccess(w, nil)
			return
		}

		result, err := svc.Process(ctx, *signal)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("stripe event %s resolved as %s", event.ID, result.Outcome))
		}
		responses.WriteSuccess(w, map[string]string{"outcome": string(result.Outcome)})
	}
}
