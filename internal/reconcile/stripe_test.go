package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/bodenhaus/checkout-backend/pkg/enums"
)

func stripeEvent(t *testing.T, eventType stripe.EventType, sessionID, paymentStatus string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":             sessionID,
		"payment_status": paymentStatus,
	})
	require.NoError(t, err)
	return &stripe.Event{
		ID:      "evt_1",
		Type:    eventType,
		Created: 1756600000,
		Data:    &stripe.EventData{Raw: raw},
	}
}

func TestSignalFromStripeEvent_Completed(t *testing.T) {
	event := stripeEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_xyz", "paid")

	signal, err := SignalFromStripeEvent(event)
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, "evt_1", signal.EventID)
	assert.Equal(t, providerStripe, signal.Provider)
	assert.Equal(t, "cs_test_xyz", signal.Reference)
	assert.Equal(t, enums.IntentPaymentSucceeded, signal.Intent)
	assert.Equal(t, int64(1756600000), signal.ReceivedAt.Unix())
}

func TestSignalFromStripeEvent_FailureTypes(t *testing.T) {
	for _, eventType := range []stripe.EventType{
		stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
	} {
		signal, err := SignalFromStripeEvent(stripeEvent(t, eventType, "cs_test_xyz", "unpaid"))
		require.NoError(t, err)
		require.NotNil(t, signal)
		assert.Equal(t, enums.IntentPaymentFailed, signal.Intent)
	}
}

func TestSignalFromStripeEvent_CompletedUnpaidIsDeferred(t *testing.T) {
	signal, err := SignalFromStripeEvent(stripeEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_xyz", "unpaid"))
	require.NoError(t, err)
	assert.Nil(t, signal)
}

func TestSignalFromStripeEvent_UnrelatedTypeIsIgnored(t *testing.T) {
	signal, err := SignalFromStripeEvent(stripeEvent(t, stripe.EventTypeInvoicePaid, "in_1", ""))
	require.NoError(t, err)
	assert.Nil(t, signal)
}

func TestSignalFromStripeEvent_MissingSessionID(t *testing.T) {
	_, err := SignalFromStripeEvent(stripeEvent(t, stripe.EventTypeCheckoutSessionCompleted, "", "paid"))
	require.Error(t, err)
}
