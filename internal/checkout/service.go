// Package checkout opens orders on the ledger and routes them to the right
// payment rail. Its contract is deterministic closure: once an order has
// been created, no code path leaves it pending. Either the payment session
// opens and the order moves to awaiting payment, or the order is closed as
// failed or cancelled before the request finishes.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/bodenhaus/checkout-backend/internal/providers"
	"github.com/bodenhaus/checkout-backend/pkg/db/models"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
	"github.com/bodenhaus/checkout-backend/pkg/metrics"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

type Service struct {
	ledger   Ledger
	adapters map[enums.PaymentMethod]providers.Adapter
	refs     ReferenceSaver
	metrics  *metrics.PaymentMetrics
	logger   *logger.Logger

	startRetries   uint64
	startBackoff   time.Duration
	requestTimeout time.Duration
}

func NewService(
	ledger Ledger,
	adapters []providers.Adapter,
	refs ReferenceSaver,
	paymentMetrics *metrics.PaymentMetrics,
	logg *logger.Logger,
	startRetries int,
	startBackoff time.Duration,
	requestTimeout time.Duration,
) *Service {
	byMethod := make(map[enums.PaymentMethod]providers.Adapter, len(adapters))
	for _, adapter := range adapters {
		byMethod[adapter.Method()] = adapter
	}
	if startRetries < 0 {
		startRetries = 0
	}
	if startBackoff <= 0 {
		startBackoff = 250 * time.Millisecond
	}
	if requestTimeout <= 0 {
		requestTimeout = 8 * time.Second
	}
	return &Service{
		ledger:         ledger,
		adapters:       byMethod,
		refs:           refs,
		metrics:        paymentMetrics,
		logger:         logg,
		startRetries:   uint64(startRetries),
		startBackoff:   startBackoff,
		requestTimeout: requestTimeout,
	}
}

// CreateOrder creates the ledger order and opens a payment session for it.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	method, err := enums.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported payment method")
	}
	adapter, ok := s.adapters[method]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method not available").
			WithDetails(map[string]any{"payment_method": string(method)})
	}

	order, err := s.createLedgerOrder(ctx, req)
	if err != nil {
		s.metrics.IncCheckout(string(method), "rejected")
		return nil, err
	}
	ctx = s.logger.WithOrderID(ctx, order.ID)

	// The order exists on the ledger now. Closing writes run on a context
	// that survives the customer hanging up, otherwise a disconnect at the
	// wrong moment strands the order in pending forever.
	detached := context.WithoutCancel(ctx)

	start, err := s.startWithRetry(ctx, adapter, order)
	if err != nil {
		status := enums.OrderStatusFailed
		reason := fmt.Sprintf("Opening %s payment session failed: %v.", method, err)
		if errors.Is(err, context.Canceled) {
			status = enums.OrderStatusCancelled
			reason = "Checkout abandoned before the payment session opened."
		}
		s.close(detached, order, status, reason)
		s.metrics.IncCheckout(string(method), "failed")
		return nil, err
	}

	if err := s.refs.SaveReference(detached, &models.OrderReference{
		ProviderReference: start.Reference,
		OrderID:           order.ID,
		PaymentMethod:     method,
	}); err != nil {
		s.close(detached, order, enums.OrderStatusFailed,
			"Payment session could not be recorded; order closed.")
		s.metrics.IncCheckout(string(method), "failed")
		return nil, err
	}

	updated, err := s.attach(detached, order, start.Reference)
	if err != nil {
		s.close(detached, order, enums.OrderStatusFailed,
			fmt.Sprintf("Attaching payment session %s failed; order closed.", start.Reference))
		s.metrics.IncCheckout(string(method), "failed")
		return nil, err
	}

	s.note(detached, order.ID, fmt.Sprintf("Payment session %s opened via %s.", start.Reference, method))
	s.logger.Info(ctx, fmt.Sprintf("payment session opened via %s", method))
	s.metrics.IncCheckout(string(method), "started")

	return &CreateOrderResponse{
		OrderID:    updated.ID,
		Status:     updated.Status,
		Reference:  start.Reference,
		NextAction: start.NextAction,
	}, nil
}

// createLedgerOrder retries transient ledger faults; nothing to clean up
// yet if creation itself never succeeds.
func (s *Service) createLedgerOrder(ctx context.Context, req CreateOrderRequest) (*woocommerce.Order, error) {
	var order *woocommerce.Order
	backoff := retry.WithMaxRetries(s.startRetries, retry.NewConstant(s.startBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		created, err := s.ledger.CreateOrder(ctx, req.toLedgerInput())
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
				return retry.RetryableError(err)
			}
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// startWithRetry opens the payment session. Every attempt runs under its own
// deadline so a stalled provider API cannot hold the checkout request for the
// SDK's default timeout; an attempt that times out is retried like any other
// transient provider fault as long as the request itself is still live.
func (s *Service) startWithRetry(ctx context.Context, adapter providers.Adapter, order *woocommerce.Order) (*providers.StartResult, error) {
	var result *providers.StartResult
	backoff := retry.WithMaxRetries(s.startRetries, retry.NewConstant(s.startBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		started, err := s.startOnce(ctx, adapter, order)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeDependency) && ctx.Err() == nil {
				return retry.RetryableError(err)
			}
			return err
		}
		result = started
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) startOnce(ctx context.Context, adapter providers.Adapter, order *woocommerce.Order) (*providers.StartResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	return adapter.StartPayment(attemptCtx, order)
}

// attach moves the order to awaiting payment with the provider reference in
// the same write. One concurrent writer is tolerated with a fresh read.
func (s *Service) attach(ctx context.Context, order *woocommerce.Order, reference string) (*woocommerce.Order, error) {
	version := order.Version
	for attempt := 0; attempt < 2; attempt++ {
		updated, err := s.ledger.UpdateOrderStatus(ctx, order.ID, woocommerce.StatusUpdate{
			Status:            enums.OrderStatusAwaitingPayment,
			ExpectedVersion:   version,
			ProviderReference: reference,
		})
		if err == nil {
			return updated, nil
		}
		if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) || attempt == 1 {
			return nil, err
		}
		fresh, readErr := s.ledger.GetOrder(ctx, order.ID)
		if readErr != nil {
			return nil, readErr
		}
		version = fresh.Version
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "attaching payment session lost version race")
}

// close moves a just-created order out of pending. Best effort on top of a
// detached context; a failure here is logged loudly because it means a
// pending order may be left behind for the ledger's stale-order cleanup.
func (s *Service) close(ctx context.Context, order *woocommerce.Order, status enums.OrderStatus, reason string) {
	fresh, err := s.ledger.GetOrder(ctx, order.ID)
	if err != nil {
		s.logger.Error(ctx, "closing pending order failed on read", err)
		return
	}
	if fresh.Status != enums.OrderStatusPending {
		return
	}
	_, err = s.ledger.UpdateOrderStatus(ctx, order.ID, woocommerce.StatusUpdate{
		Status:          status,
		ExpectedVersion: fresh.Version,
	})
	if err != nil {
		s.logger.Error(ctx, "closing pending order failed on write", err)
		return
	}
	s.note(ctx, order.ID, reason)
}

func (s *Service) note(ctx context.Context, orderID int64, text string) {
	if err := s.ledger.AddOrderNote(ctx, orderID, text); err != nil {
		s.logger.Warn(ctx, fmt.Sprintf("adding order note failed: %v", err))
	}
}
