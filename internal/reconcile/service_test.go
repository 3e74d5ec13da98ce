package reconcile

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodenhaus/checkout-backend/internal/providers"
	"github.com/bodenhaus/checkout-backend/pkg/db/models"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
	"github.com/bodenhaus/checkout-backend/pkg/metrics"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

type fakeLedger struct {
	order *woocommerce.Order

	getErr    error
	updateErr error
	// conflictTimes makes the first N updates fail with a version conflict.
	conflictTimes int

	updates []woocommerce.StatusUpdate
	notes   []string
}

func (f *fakeLedger) GetOrder(ctx context.Context, orderID int64) (*woocommerce.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copied := *f.order
	return &copied, nil
}

func (f *fakeLedger) UpdateOrderStatus(ctx context.Context, orderID int64, update woocommerce.StatusUpdate) (*woocommerce.Order, error) {
	f.updates = append(f.updates, update)
	if f.conflictTimes > 0 {
		f.conflictTimes--
		f.order.Version++
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "version mismatch")
	}
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.order.Status = update.Status
	f.order.Version++
	copied := *f.order
	return &copied, nil
}

func (f *fakeLedger) AddOrderNote(ctx context.Context, orderID int64, note string) error {
	f.notes = append(f.notes, note)
	return nil
}

type fakeResolver struct {
	refs map[string]*models.OrderReference
}

func (f *fakeResolver) FindByReference(ctx context.Context, providerReference string) (*models.OrderReference, error) {
	if ref, ok := f.refs[providerReference]; ok {
		return ref, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown provider reference")
}

type fakeJournal struct {
	events []*models.PaymentEvent
}

func (f *fakeJournal) RecordEvent(ctx context.Context, event *models.PaymentEvent) error {
	f.events = append(f.events, event)
	return nil
}

// fakeGuard mimics the Redis SetNX ledger with an in-memory set.
type fakeGuard struct {
	seen     map[string]bool
	checkErr error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{seen: map[string]bool{}}
}

func (f *fakeGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	if f.seen[eventID] {
		return true, nil
	}
	f.seen[eventID] = true
	return false, nil
}

func (f *fakeGuard) Delete(ctx context.Context, eventID string) error {
	delete(f.seen, eventID)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func awaitingOrder() *woocommerce.Order {
	return &woocommerce.Order{
		ID:                4711,
		Status:            enums.OrderStatusAwaitingPayment,
		Total:             decimal.RequireFromString("129.90"),
		Currency:          "EUR",
		ProviderReference: "cs_test_xyz",
		Version:           2,
	}
}

func succeededSignal() Signal {
	return Signal{
		EventID:    "evt_1",
		EventType:  "checkout.session.completed",
		Provider:   providerStripe,
		Reference:  "cs_test_xyz",
		Intent:     enums.IntentPaymentSucceeded,
		ReceivedAt: time.Now().UTC(),
	}
}

func newTestService(ledger *fakeLedger, resolver *fakeResolver, journal *fakeJournal, guard Guard) *Service {
	return NewService(ledger, resolver, journal, guard, metrics.NewPaymentMetrics(nil), testLogger(), 3)
}

func TestProcess_AppliesTransition(t *testing.T) {
	ledger := &fakeLedger{order: awaitingOrder()}
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"cs_test_xyz": {ProviderReference: "cs_test_xyz", OrderID: 4711, PaymentMethod: enums.PaymentMethodCard},
	}}
	journal := &fakeJournal{}
	svc := newTestService(ledger, resolver, journal, newFakeGuard())

	res, err := svc.Process(context.Background(), succeededSignal())
	require.NoError(t, err)
	assert.Equal(t, enums.EventOutcomeApplied, res.Outcome)
	assert.Equal(t, int64(4711), res.OrderID)
	assert.False(t, res.NoOp)

	require.Len(t, ledger.updates, 1)
	assert.Equal(t, enums.OrderStatusPaid, ledger.updates[0].Status)
	assert.Equal(t, int64(2), ledger.updates[0].ExpectedVersion)

	require.Len(t, journal.events, 1)
	assert.Equal(t, enums.EventOutcomeApplied, journal.events[0].Outcome)
	require.Len(t, ledger.notes, 1)
	assert.Contains(t, ledger.notes[0], "evt_1")
}

func TestProcess_DuplicateIsAcknowledgedWithoutWrite(t *testing.T) {
	ledger := &fakeLedger{order: awaitingOrder()}
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"cs_test_xyz": {ProviderReference: "cs_test_xyz", OrderID: 4711, PaymentMethod: enums.PaymentMethodCard},
	}}
	journal := &fakeJournal{}
	svc := newTestService(ledger, resolver, journal, newFakeGuard())

	_, err := svc.Process(context.Background(), succeededSignal())
	require.NoError(t, err)

	res, err := svc.Process(context.Background(), succeededSignal())
	require.NoError(t, err)
	assert.Equal(t, enums.EventOutcomeDuplicate, res.Outcome)

	assert.Len(t, ledger.updates, 1, "duplicate must not write the ledger again")
	require.Len(t, journal.events, 2)
	assert.Equal(t, enums.EventOutcomeDuplicate, journal.events[1].Outcome)
}

func TestProcess_ExpiredMarkCollapsesToNoOp(t *testing.T) {
	order := awaitingOrder()
	ledger := &fakeLedger{order: order}
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"cs_test_xyz": {ProviderReference: "cs_test_xyz", OrderID: 4711, PaymentMethod: enums.PaymentMethodCard},
	}}
	journal := &fakeJournal{}
	guard := newFakeGuard()
	svc := newTestService(ledger, resolver, journal, guard)

	_, err := svc.Process(context.Background(), succeededSignal())
	require.NoError(t, err)

	// The mark expired; the redelivery passes the guard but the state
	// machine sees paid already and accepts without writing.
	delete(guard.seen, "evt_1")
	res, err := svc.Process(context.Background(), succeededSignal())
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Len(t, ledger.updates, 1)
}

func TestProcess_UnresolvedReferenceIsAcknowledged(t *testing.T) {
	ledger := &fakeLedger{order: awaitingOrder()}
	journal := &fakeJournal{}
	svc := newTestService(ledger, &fakeResolver{refs: map[string]*models.OrderReference{}}, journal, newFakeGuard())

	res, err := svc.Process(context.Background(), succeededSignal())
	require.NoError(t, err)
	assert.Equal(t, enums.EventOutcomeUnresolved, res.Outcome)
	assert.Empty(t, ledger.updates)

	require.Len(t, journal.events, 1)
	assert.Equal(t, enums.EventOutcomeUnresolved, journal.events[0].Outcome)
	assert.Nil(t, journal.events[0].OrderID)
}

func TestProcess_RejectedTransitionKeepsMark(t *testing.T) {
	order := awaitingOrder()
	order.Status = enums.OrderStatusCancelled
	ledger := &fakeLedger{order: order}
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"cs_test_xyz": {ProviderReference: "cs_test_xyz", OrderID: 4711, PaymentMethod: enums.PaymentMethodCard},
	}}
	journal := &fakeJournal{}
	guard := newFakeGuard()
	svc := newTestService(ledger, resolver, journal, guard)

	_, err := svc.Process(context.Background(), succeededSignal())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, ledger.updates)
	assert.True(t, guard.seen["evt_1"], "rejection must keep the idempotency mark")

	require.Len(t, journal.events, 1)
	assert.Equal(t, enums.EventOutcomeRejected, journal.events[0].Outcome)
}

func TestProcess_VersionConflictRetriesThenApplies(t *testing.T) {
	ledger := &fakeLedger{order: awaitingOrder(), conflictTimes: 1}
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"cs_test_xyz": {ProviderReference: "cs_test_xyz", OrderID: 4711, PaymentMethod: enums.PaymentMethodCard},
	}}
	journal := &fakeJournal{}
	svc := newTestService(ledger, resolver, journal, newFakeGuard())

	res, err := svc.Process(context.Background(), succeededSignal())
	require.NoError(t, err)
	assert.Equal(t, enums.EventOutcomeApplied, res.Outcome)
	require.Len(t, ledger.updates, 2)
	assert.Equal(t, int64(3), ledger.updates[1].ExpectedVersion, "retry must re-read before writing")
}

func TestProcess_ConflictExhaustionReleasesMark(t *testing.T) {
	ledger := &fakeLedger{order: awaitingOrder(), conflictTimes: 10}
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"cs_test_xyz": {ProviderReference: "cs_test_xyz", OrderID: 4711, PaymentMethod: enums.PaymentMethodCard},
	}}
	journal := &fakeJournal{}
	guard := newFakeGuard()
	svc := newTestService(ledger, resolver, journal, guard)

	_, err := svc.Process(context.Background(), succeededSignal())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Len(t, ledger.updates, 3)
	assert.False(t, guard.seen["evt_1"], "exhaustion must release the mark for redelivery")

	require.Len(t, journal.events, 1)
	assert.Equal(t, enums.EventOutcomeConflict, journal.events[0].Outcome)

	require.Len(t, ledger.notes, 1, "exhaustion leaves an audit note on the order")
	assert.Contains(t, ledger.notes[0], "evt_1")
	assert.Contains(t, ledger.notes[0], "version conflicts")
}

func TestProcess_GuardFailureIsDependencyError(t *testing.T) {
	ledger := &fakeLedger{order: awaitingOrder()}
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"cs_test_xyz": {ProviderReference: "cs_test_xyz", OrderID: 4711, PaymentMethod: enums.PaymentMethodCard},
	}}
	guard := newFakeGuard()
	guard.checkErr = errors.New("redis down")
	svc := newTestService(ledger, resolver, &fakeJournal{}, guard)

	_, err := svc.Process(context.Background(), succeededSignal())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.Empty(t, ledger.updates)
}

type fakeCapturer struct {
	outcome *providers.CaptureOutcome
	err     error
}

func (f *fakeCapturer) Capture(ctx context.Context, reference string) (*providers.CaptureOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func TestProcessCapture_Success(t *testing.T) {
	order := awaitingOrder()
	order.ProviderReference = "5O190127TN364715T"
	ledger := &fakeLedger{order: order}
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"5O190127TN364715T": {ProviderReference: "5O190127TN364715T", OrderID: 4711, PaymentMethod: enums.PaymentMethodPayPal},
	}}
	journal := &fakeJournal{}
	svc := newTestService(ledger, resolver, journal, newFakeGuard())
	captures := NewCaptureService(svc, resolver, &fakeCapturer{
		outcome: &providers.CaptureOutcome{Reference: "5O190127TN364715T", Succeeded: true},
	})

	res, err := captures.ProcessCapture(context.Background(), 4711, "5O190127TN364715T")
	require.NoError(t, err)
	assert.Equal(t, enums.EventOutcomeApplied, res.Outcome)
	require.Len(t, ledger.updates, 1)
	assert.Equal(t, enums.OrderStatusPaid, ledger.updates[0].Status)
}

func TestProcessCapture_ReplayedReturnIsDuplicate(t *testing.T) {
	order := awaitingOrder()
	order.ProviderReference = "5O190127TN364715T"
	ledger := &fakeLedger{order: order}
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"5O190127TN364715T": {ProviderReference: "5O190127TN364715T", OrderID: 4711, PaymentMethod: enums.PaymentMethodPayPal},
	}}
	svc := newTestService(ledger, resolver, &fakeJournal{}, newFakeGuard())
	captures := NewCaptureService(svc, resolver, &fakeCapturer{
		outcome: &providers.CaptureOutcome{Reference: "5O190127TN364715T", Succeeded: true, AlreadyCaptured: true},
	})

	_, err := captures.ProcessCapture(context.Background(), 4711, "5O190127TN364715T")
	require.NoError(t, err)

	res, err := captures.ProcessCapture(context.Background(), 4711, "5O190127TN364715T")
	require.NoError(t, err)
	assert.Equal(t, enums.EventOutcomeDuplicate, res.Outcome)
	assert.Len(t, ledger.updates, 1)
}

func TestProcessCapture_TokenOrderMismatch(t *testing.T) {
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"5O190127TN364715T": {ProviderReference: "5O190127TN364715T", OrderID: 4711, PaymentMethod: enums.PaymentMethodPayPal},
	}}
	svc := newTestService(&fakeLedger{order: awaitingOrder()}, resolver, &fakeJournal{}, newFakeGuard())
	captures := NewCaptureService(svc, resolver, &fakeCapturer{})

	_, err := captures.ProcessCapture(context.Background(), 9999, "5O190127TN364715T")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestProcessCapture_DeclinedCaptureFailsOrder(t *testing.T) {
	order := awaitingOrder()
	order.ProviderReference = "5O190127TN364715T"
	ledger := &fakeLedger{order: order}
	resolver := &fakeResolver{refs: map[string]*models.OrderReference{
		"5O190127TN364715T": {ProviderReference: "5O190127TN364715T", OrderID: 4711, PaymentMethod: enums.PaymentMethodPayPal},
	}}
	svc := newTestService(ledger, resolver, &fakeJournal{}, newFakeGuard())
	captures := NewCaptureService(svc, resolver, &fakeCapturer{
		outcome: &providers.CaptureOutcome{Reference: "5O190127TN364715T", Succeeded: false},
	})

	res, err := captures.ProcessCapture(context.Background(), 4711, "5O190127TN364715T")
	require.NoError(t, err)
	assert.Equal(t, enums.EventOutcomeApplied, res.Outcome)
	require.Len(t, ledger.updates, 1)
	assert.Equal(t, enums.OrderStatusFailed, ledger.updates[0].Status)
}
