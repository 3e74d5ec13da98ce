package controllers

import (
	"context"
	"net/http"

	"github.com/bodenhaus/checkout-backend/api/responses"
	"github.com/bodenhaus/checkout-backend/api/validators"
	"github.com/bodenhaus/checkout-backend/internal/checkout"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
)

type CheckoutService interface {
	CreateOrder(ctx context.Context, req checkout.CreateOrderRequest) (*checkout.CreateOrderResponse, error)
}

// CreateOrder accepts the storefront's checkout submission, opens the order
// and payment session, and returns the storefront's next action.
func CreateOrder(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var req checkout.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		res, err := svc.CreateOrder(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, res)
	}
}
