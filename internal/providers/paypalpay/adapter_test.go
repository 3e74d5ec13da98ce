package paypalpay

import (
	"context"
	"errors"
	"testing"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodenhaus/checkout-backend/internal/providers"
	"github.com/bodenhaus/checkout-backend/pkg/config"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

type stubPayPal struct {
	units      []paypal.PurchaseUnitRequest
	appContext *paypal.ApplicationContext

	created   *paypal.Order
	createErr error

	captured   *paypal.CaptureOrderResponse
	captureErr error

	queried  *paypal.Order
	queryErr error
}

func (s *stubPayPal) CreateOrder(ctx context.Context, units []paypal.PurchaseUnitRequest, appContext *paypal.ApplicationContext) (*paypal.Order, error) {
	s.units = units
	s.appContext = appContext
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.created, nil
}

func (s *stubPayPal) CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureOrderResponse, error) {
	if s.captureErr != nil {
		return nil, s.captureErr
	}
	return s.captured, nil
}

func (s *stubPayPal) GetOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.queried, nil
}

func testConfig() config.PayPalConfig {
	return config.PayPalConfig{
		ReturnURL: "https://shop.example.de/checkout/paypal/capture",
		CancelURL: "https://shop.example.de/kasse",
	}
}

func TestStartPayment(t *testing.T) {
	stub := &stubPayPal{created: &paypal.Order{
		ID: "5O190127TN364715T",
		Links: []paypal.Link{
			{Rel: "self", Href: "https://api.sandbox.paypal.com/v2/checkout/orders/5O190127TN364715T"},
			{Rel: "approve", Href: "https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T"},
		},
	}}
	adapter := NewAdapter(stub, testConfig())

	order := &woocommerce.Order{
		ID:       4711,
		Total:    decimal.RequireFromString("89.50"),
		Currency: "EUR",
	}

	res, err := adapter.StartPayment(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "5O190127TN364715T", res.Reference)
	assert.Equal(t, providers.NextActionRedirect, res.NextAction.Type)
	assert.Contains(t, res.NextAction.URL, "checkoutnow")

	require.Len(t, stub.units, 1)
	assert.Equal(t, "4711", stub.units[0].ReferenceID)
	assert.Equal(t, "4711", stub.units[0].CustomID)
	assert.Equal(t, "EUR", stub.units[0].Amount.Currency)
	assert.Equal(t, "89.50", stub.units[0].Amount.Value)
	assert.Equal(t, testConfig().ReturnURL, stub.appContext.ReturnURL)
}

func TestStartPayment_NoApproveLink(t *testing.T) {
	stub := &stubPayPal{created: &paypal.Order{ID: "X", Links: []paypal.Link{{Rel: "self", Href: "about:blank"}}}}
	adapter := NewAdapter(stub, testConfig())

	_, err := adapter.StartPayment(context.Background(), &woocommerce.Order{ID: 1, Total: decimal.Zero, Currency: "EUR"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestCapture_Completed(t *testing.T) {
	stub := &stubPayPal{captured: &paypal.CaptureOrderResponse{ID: "REF", Status: "COMPLETED"}}
	adapter := NewAdapter(stub, testConfig())

	out, err := adapter.Capture(context.Background(), "REF")
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.False(t, out.AlreadyCaptured)
}

func TestCapture_RaceResolvedByRequery(t *testing.T) {
	stub := &stubPayPal{
		captureErr: &paypal.ErrorResponse{
			Name:    "UNPROCESSABLE_ENTITY",
			Details: []paypal.ErrorResponseDetail{{Issue: "ORDER_ALREADY_CAPTURED"}},
		},
		queried: &paypal.Order{ID: "REF", Status: "COMPLETED"},
	}
	adapter := NewAdapter(stub, testConfig())

	out, err := adapter.Capture(context.Background(), "REF")
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.True(t, out.AlreadyCaptured)
}

func TestCapture_GatewayError(t *testing.T) {
	stub := &stubPayPal{captureErr: errors.New("timeout")}
	adapter := NewAdapter(stub, testConfig())

	_, err := adapter.Capture(context.Background(), "REF")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}
