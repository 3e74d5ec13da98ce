// Package reconcile applies asynchronous payment confirmation signals to
// the order ledger. Providers deliver at-least-once and out of order; the
// pipeline here (resolve, guard, decide, optimistic write, journal) turns
// that into effectively-once transitions on the order state machine.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/bodenhaus/checkout-backend/internal/orders"
	"github.com/bodenhaus/checkout-backend/pkg/db/models"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
	"github.com/bodenhaus/checkout-backend/pkg/metrics"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

// Signal is a normalized confirmation event, provider specifics already
// stripped off by the adapter that built it.
type Signal struct {
	EventID    string
	EventType  string
	Provider   string
	Reference  string
	Intent     enums.TransitionIntent
	ReceivedAt time.Time
}

// Result reports how a signal was resolved. Every path that acknowledges
// the delivery produces one, including duplicates and unresolved events.
type Result struct {
	Outcome enums.EventOutcome
	OrderID int64
	Status  enums.OrderStatus
	NoOp    bool
}

type Service struct {
	ledger   Ledger
	resolver Resolver
	journal  Journaler
	guard    Guard
	metrics  *metrics.PaymentMetrics
	logger   *logger.Logger

	maxWriteRetries int
}

func NewService(
	ledger Ledger,
	resolver Resolver,
	journal Journaler,
	guard Guard,
	paymentMetrics *metrics.PaymentMetrics,
	logg *logger.Logger,
	maxWriteRetries int,
) *Service {
	if maxWriteRetries <= 0 {
		maxWriteRetries = 3
	}
	return &Service{
		ledger:          ledger,
		resolver:        resolver,
		journal:         journal,
		guard:           guard,
		metrics:         paymentMetrics,
		logger:          logg,
		maxWriteRetries: maxWriteRetries,
	}
}

// Process runs one signal through the pipeline. A nil error means the
// delivery may be acknowledged; a dependency or conflict error means the
// provider should redeliver, and the idempotency mark has been released so
// the redelivery is not swallowed as a duplicate.
func (s *Service) Process(ctx context.Context, signal Signal) (*Result, error) {
	ctx = s.logger.WithEventID(ctx, signal.EventID)
	ctx = s.logger.WithProvider(ctx, signal.Provider)

	ref, err := s.resolver.FindByReference(ctx, signal.Reference)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return s.acknowledgeUnresolved(ctx, signal)
		}
		return nil, err
	}
	ctx = s.logger.WithOrderID(ctx, ref.OrderID)

	seen, err := s.guard.CheckAndMark(ctx, signal.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check failed")
	}
	if seen {
		s.logger.Info(ctx, "duplicate payment event acknowledged")
		s.record(ctx, signal, &ref.OrderID, enums.EventOutcomeDuplicate, "idempotency mark already present")
		result := &Result{Outcome: enums.EventOutcomeDuplicate, OrderID: ref.OrderID}
		// Best effort; the return leg wants to show the customer where the
		// order landed the first time around.
		if order, err := s.ledger.GetOrder(ctx, ref.OrderID); err == nil {
			result.Status = order.Status
		}
		return result, nil
	}

	result, err := s.applyWithRetry(ctx, signal, ref.OrderID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyWithRetry runs the read-decide-write loop. Version conflicts from
// concurrent writers are retried with a fresh read; everything else ends
// the loop.
func (s *Service) applyWithRetry(ctx context.Context, signal Signal, orderID int64) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxWriteRetries; attempt++ {
		order, err := s.ledger.GetOrder(ctx, orderID)
		if err != nil {
			s.release(ctx, signal.EventID)
			return nil, err
		}

		decision, err := orders.Apply(order.Status, signal.Intent)
		if err != nil {
			// A rejected transition is a contract violation, not a
			// transient fault. The mark stays so redeliveries of the
			// same broken event do not hammer the ledger.
			s.logger.Error(ctx, "payment event rejected by state machine", err)
			s.record(ctx, signal, &orderID, enums.EventOutcomeRejected, err.Error())
			s.note(ctx, orderID, fmt.Sprintf("Payment event %s (%s) rejected: order is %s.",
				signal.EventID, signal.EventType, order.Status))
			return nil, err
		}

		if decision.NoOp {
			s.record(ctx, signal, &orderID, enums.EventOutcomeApplied, "status already held, no write")
			s.note(ctx, orderID, fmt.Sprintf("Payment event %s (%s) already reflected, order stays %s.",
				signal.EventID, signal.EventType, order.Status))
			return &Result{Outcome: enums.EventOutcomeApplied, OrderID: orderID, Status: order.Status, NoOp: true}, nil
		}

		_, err = s.ledger.UpdateOrderStatus(ctx, orderID, woocommerce.StatusUpdate{
			Status:          decision.Next,
			ExpectedVersion: order.Version,
		})
		if err == nil {
			s.logger.Info(ctx, fmt.Sprintf("order transitioned to %s", decision.Next))
			s.record(ctx, signal, &orderID, enums.EventOutcomeApplied, "")
			s.note(ctx, orderID, fmt.Sprintf("Payment event %s (%s) applied: %s -> %s.",
				signal.EventID, signal.EventType, order.Status, decision.Next))
			return &Result{Outcome: enums.EventOutcomeApplied, OrderID: orderID, Status: decision.Next}, nil
		}
		if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			s.release(ctx, signal.EventID)
			return nil, err
		}
		lastErr = err
	}

	// Retries exhausted against concurrent writers. Release the mark and
	// journal a conflict row for manual inspection; the provider's next
	// delivery re-runs the loop against the then-current status.
	s.release(ctx, signal.EventID)
	s.logger.Error(ctx, "optimistic write retries exhausted", lastErr)
	s.record(ctx, signal, &orderID, enums.EventOutcomeConflict,
		fmt.Sprintf("version conflict after %d attempts", s.maxWriteRetries))
	s.note(ctx, orderID, fmt.Sprintf("Payment event %s (%s) hit repeated version conflicts, queued for review.",
		signal.EventID, signal.EventType))
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "order update lost repeated version races")
}

func (s *Service) acknowledgeUnresolved(ctx context.Context, signal Signal) (*Result, error) {
	s.logger.Warn(ctx, fmt.Sprintf("no order mapped to provider reference %s", signal.Reference))
	s.record(ctx, signal, nil, enums.EventOutcomeUnresolved, "unknown provider reference")
	return &Result{Outcome: enums.EventOutcomeUnresolved}, nil
}

// record journals the signal's outcome and bumps the metric. Journal
// failures are logged, never propagated: the ledger write already happened
// and acknowledging the delivery matters more than the side table.
func (s *Service) record(ctx context.Context, signal Signal, orderID *int64, outcome enums.EventOutcome, detail string) {
	event := &models.PaymentEvent{
		EventID:           signal.EventID,
		EventType:         signal.EventType,
		ProviderReference: signal.Reference,
		OrderID:           orderID,
		Intent:            signal.Intent,
		Outcome:           outcome,
		ReceivedAt:        signal.ReceivedAt,
	}
	if detail != "" {
		event.Detail = &detail
	}
	if err := s.journal.RecordEvent(ctx, event); err != nil {
		s.logger.Error(ctx, "journaling payment event failed", err)
	}
	s.metrics.IncEvent(signal.Provider, string(outcome))
}

func (s *Service) note(ctx context.Context, orderID int64, text string) {
	if err := s.ledger.AddOrderNote(ctx, orderID, text); err != nil {
		s.logger.Warn(ctx, fmt.Sprintf("adding order note failed: %v", err))
	}
}

func (s *Service) release(ctx context.Context, eventID string) {
	if err := s.guard.Delete(ctx, eventID); err != nil {
		s.logger.Error(ctx, "releasing idempotency mark failed", err)
	}
}
