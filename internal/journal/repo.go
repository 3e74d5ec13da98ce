// Package journal persists the reconciliation side tables: the provider
// reference map written at payment initiation and the event journal written
// by the reconciler.
package journal

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bodenhaus/checkout-backend/pkg/db/models"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// SaveReference records the provider reference assigned to an order. The
// reference is the primary key; a second insert for the same reference is a
// conflict, references are never reassigned.
func (r *Repo) SaveReference(ctx context.Context, ref *models.OrderReference) error {
	if err := r.db.WithContext(ctx).Create(ref).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "provider reference already mapped")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving order reference")
	}
	return nil
}

// FindByReference resolves a provider reference to its order mapping.
func (r *Repo) FindByReference(ctx context.Context, providerReference string) (*models.OrderReference, error) {
	var ref models.OrderReference
	err := r.db.WithContext(ctx).
		Where("provider_reference = ?", providerReference).
		First(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown provider reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up order reference")
	}
	return &ref, nil
}

// RecordEvent appends a journal row for a processed confirmation signal.
func (r *Repo) RecordEvent(ctx context.Context, event *models.PaymentEvent) error {
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording payment event")
	}
	return nil
}

// ListConflicts returns the most recent conflict rows for manual inspection.
func (r *Repo) ListConflicts(ctx context.Context, limit int) ([]models.PaymentEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("outcome = ?", enums.EventOutcomeConflict).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing conflict events")
	}
	return events, nil
}
