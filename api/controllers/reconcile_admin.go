package controllers

import (
	"context"
	"net/http"

	"github.com/bodenhaus/checkout-backend/api/responses"
	"github.com/bodenhaus/checkout-backend/api/validators"
	"github.com/bodenhaus/checkout-backend/pkg/db/models"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
)

type ConflictLister interface {
	ListConflicts(ctx context.Context, limit int) ([]models.PaymentEvent, error)
}

// ReconcileConflicts lists journal rows where an event lost its write races,
// the queue an operator works through by hand.
func ReconcileConflicts(repo ConflictLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "journal unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		events, err := repo.ListConflicts(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, events)
	}
}
