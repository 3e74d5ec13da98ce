package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodenhaus/checkout-backend/internal/orders"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
)

type stubOrderStatus struct {
	orderID int64
	email   string
	status  *orders.Status
	err     error
}

func (s *stubOrderStatus) StatusLookup(ctx context.Context, orderID int64, email string) (*orders.Status, error) {
	s.orderID = orderID
	s.email = email
	if s.err != nil {
		return nil, s.err
	}
	return s.status, nil
}

func orderStatusRouter(svc OrderStatusService) http.Handler {
	r := chi.NewRouter()
	r.Get("/checkout/order/{orderId}", OrderStatus(svc, testLogger()))
	return r
}

func TestOrderStatus(t *testing.T) {
	svc := &stubOrderStatus{status: &orders.Status{
		OrderID:  4711,
		Status:   enums.OrderStatusPaid,
		Total:    "129.90",
		Currency: "EUR",
	}}

	req := httptest.NewRequest(http.MethodGet, "/checkout/order/4711?email=kunde%40example.de", nil)
	rec := httptest.NewRecorder()
	orderStatusRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(4711), svc.orderID)
	assert.Equal(t, "kunde@example.de", svc.email)

	var body struct {
		Data orders.Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, enums.OrderStatusPaid, body.Data.Status)
}

func TestOrderStatus_MissingEmail(t *testing.T) {
	svc := &stubOrderStatus{}

	req := httptest.NewRequest(http.MethodGet, "/checkout/order/4711", nil)
	rec := httptest.NewRecorder()
	orderStatusRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderStatus_BadOrderID(t *testing.T) {
	svc := &stubOrderStatus{}

	req := httptest.NewRequest(http.MethodGet, "/checkout/order/abc?email=kunde%40example.de", nil)
	rec := httptest.NewRecorder()
	orderStatusRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderStatus_NotFound(t *testing.T) {
	svc := &stubOrderStatus{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}

	req := httptest.NewRequest(http.MethodGet, "/checkout/order/4711?email=andere%40example.de", nil)
	rec := httptest.NewRecorder()
	orderStatusRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
