package banktransfer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodenhaus/checkout-backend/internal/providers"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

func TestStartPayment(t *testing.T) {
	adapter := NewAdapter()
	assert.Equal(t, enums.PaymentMethodBankTransfer, adapter.Method())

	res, err := adapter.StartPayment(context.Background(), &woocommerce.Order{ID: 4711})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Reference, "bt_4711_"))
	assert.Equal(t, providers.NextActionNone, res.NextAction.Type)
	assert.Empty(t, res.NextAction.URL)
}

func TestStartPayment_ReferencesAreUnique(t *testing.T) {
	adapter := NewAdapter()
	order := &woocommerce.Order{ID: 1}

	first, err := adapter.StartPayment(context.Background(), order)
	require.NoError(t, err)
	second, err := adapter.StartPayment(context.Background(), order)
	require.NoError(t, err)

	assert.NotEqual(t, first.Reference, second.Reference)
}
