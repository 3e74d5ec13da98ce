package controllers

import (
	"context"
	"net/http"

	"github.com/bodenhaus/checkout-backend/api/responses"
	"github.com/bodenhaus/checkout-backend/api/validators"
	"github.com/bodenhaus/checkout-backend/internal/orders"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
)

type OrderStatusService interface {
	StatusLookup(ctx context.Context, orderID int64, email string) (*orders.Status, error)
}

// OrderStatus serves the customer-facing status poll, gated by the billing
// email so the order id alone reveals nothing.
func OrderStatus(svc OrderStatusService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := validators.URLParamInt64(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		email, err := validators.RequireQuery(r, "email")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := svc.StatusLookup(ctx, orderID, email)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}
