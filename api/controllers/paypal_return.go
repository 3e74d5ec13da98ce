package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bodenhaus/checkout-backend/api/responses"
	"github.com/bodenhaus/checkout-backend/api/validators"
	"github.com/bodenhaus/checkout-backend/internal/reconcile"
	"github.com/bodenhaus/checkout-backend/pkg/config"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
)

type PayPalCaptureService interface {
	ProcessCapture(ctx context.Context, orderID int64, token string) (*reconcile.Result, error)
}

// PayPalCapture handles the customer's return leg from PayPal approval.
// The browser always ends up on a storefront page: success when the order
// is paid, failure for everything else. Only malformed parameters get a
// JSON error instead of a redirect.
func PayPalCapture(svc PayPalCaptureService, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "capture service unavailable"))
			return
		}

		orderID, err := validators.QueryInt64(r, "order")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		token, err := validators.RequireQuery(r, "token")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ProcessCapture(ctx, orderID, token)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "paypal capture failed", err)
			}
			redirect(w, r, cfg.FailurePage, orderID)
			return
		}

		if result.Status == enums.OrderStatusPaid {
			redirect(w, r, cfg.SuccessPage, orderID)
			return
		}
		redirect(w, r, cfg.FailurePage, orderID)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, page string, orderID int64) {
	http.Redirect(w, r, fmt.Sprintf("%s?order=%d", page, orderID), http.StatusSeeOther)
}
