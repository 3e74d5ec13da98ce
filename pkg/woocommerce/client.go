package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bodenhaus/checkout-backend/pkg/config"
	"github.com/bodenhaus/checkout-backend/pkg/enums"
	pkgerrors "github.com/bodenhaus/checkout-backend/pkg/errors"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	metaSyncVersion       = "_bh_sync_version"
	metaProviderReference = "_bh_provider_reference"

	ordersPath = "/wp-json/wc/v3/orders"
)

// Client talks to the WooCommerce REST API that owns the order ledger.
// Every call carries the configured bounded timeout; the ledger is the
// source of truth and this client never caches order state.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	http           *http.Client
}

// NewClient validates configuration and builds the ledger client.
func NewClient(ctx context.Context, cfg config.WooConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("woocommerce base url is required")
	}
	if strings.TrimSpace(cfg.ConsumerKey) == "" || strings.TrimSpace(cfg.ConsumerSecret) == "" {
		return nil, fmt.Errorf("woocommerce consumer key/secret are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("woocommerce ledger client initialized (%s)", baseURL))
	}

	return &Client{
		baseURL:        baseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		http:           &http.Client{Timeout: timeout},
	}, nil
}

// CreateOrder creates a ledger order in pending with the cart total attached
// as a fee line, so the ledger total always equals the submitted amount.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if input.Amount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	if input.Currency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order currency required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	payload := wooOrderCreate{
		Status:        wooStatus(enums.OrderStatusPending),
		Currency:      input.Currency,
		PaymentMethod: gatewayID(input.PaymentMethod),
		SetPaid:       false,
		Billing:       input.Billing,
		Shipping:      input.Shipping,
		FeeLines: []wooFeeLine{
			{Name: "Cart total", Total: input.Amount.StringFixed(2)},
		},
		MetaData: []wooMeta{
			{Key: metaSyncVersion, Value: "1"},
		},
	}

	var raw wooOrder
	if err := c.do(ctx, http.MethodPost, ordersPath, payload, &raw); err != nil {
		return nil, err
	}
	order, err := fromWire(raw)
	if err != nil {
		return nil, err
	}
	if !order.Total.Equal(input.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger total differs from submitted amount").
			WithDetails(map[string]any{"submitted": input.Amount.StringFixed(2), "ledger": order.Total.StringFixed(2)})
	}
	return order, nil
}

// GetOrder fetches the current persisted order state, never from cache.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var raw wooOrder
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", ordersPath, orderID), nil, &raw); err != nil {
		return nil, err
	}
	return fromWire(raw)
}

// UpdateOrderStatus performs an optimistic status write. The ledger has no
// native conditional update, so the version check reads fresh state and the
// write advances the version token in the same request. A stale expected
// version yields a conflict the caller must resolve by re-reading.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, update StatusUpdate) (*Order, error) {
	if !update.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	current, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Version != update.ExpectedVersion {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order version mismatch").
			WithDetails(map[string]any{"expected": update.ExpectedVersion, "actual": current.Version})
	}
	if update.ProviderReference != "" &&
		current.ProviderReference != "" &&
		current.ProviderReference != update.ProviderReference {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "provider reference is immutable once set")
	}

	meta := []wooMeta{
		{Key: metaSyncVersion, Value: strconv.FormatInt(update.ExpectedVersion+1, 10)},
	}
	if update.ProviderReference != "" {
		meta = append(meta, wooMeta{Key: metaProviderReference, Value: update.ProviderReference})
	}

	payload := wooOrderUpdate{
		Status:   wooStatus(update.Status),
		MetaData: meta,
	}

	var raw wooOrder
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", ordersPath, orderID), payload, &raw); err != nil {
		return nil, err
	}
	return fromWire(raw)
}

// AddOrderNote appends an internal audit note to the order.
func (c *Client) AddOrderNote(ctx context.Context, orderID int64, note string) error {
	if strings.TrimSpace(note) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order note required")
	}
	payload := wooOrderNote{Note: note, CustomerNote: false}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/notes", ordersPath, orderID), payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode ledger request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build ledger request")
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call commerce ledger")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "ledger order not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pkgerrors.New(pkgerrors.CodeDependency, "commerce ledger returned an error").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": string(snippet)})
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode ledger response")
	}
	return nil
}

func fromWire(raw wooOrder) (*Order, error) {
	status, err := statusFromWoo(raw.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unexpected ledger order status")
	}
	total, err := decimal.NewFromString(raw.Total)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unexpected ledger order total")
	}

	order := &Order{
		ID:            raw.ID,
		Status:        status,
		Total:         total,
		Currency:      raw.Currency,
		PaymentMethod: methodFromGateway(raw.PaymentMethod),
		Version:       1,
		BillingEmail:  raw.Billing.Email,
	}
	for _, meta := range raw.MetaData {
		switch meta.Key {
		case metaSyncVersion:
			if v, ok := metaInt64(meta.Value); ok {
				order.Version = v
			}
		case metaProviderReference:
			if ref, ok := meta.Value.(string); ok {
				order.ProviderReference = ref
			}
		}
	}
	return order, nil
}

func metaInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// The ledger keeps WooCommerce status slugs; the engine's canonical statuses
// map onto them so storefront plugins keep working.
func wooStatus(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusAwaitingPayment:
		return "on-hold"
	case enums.OrderStatusPaid:
		return "processing"
	default:
		return string(status)
	}
}

func statusFromWoo(slug string) (enums.OrderStatus, error) {
	switch slug {
	case "on-hold":
		return enums.OrderStatusAwaitingPayment, nil
	case "processing", "completed":
		return enums.OrderStatusPaid, nil
	default:
		return enums.ParseOrderStatus(slug)
	}
}

func gatewayID(method enums.PaymentMethod) string {
	switch method {
	case enums.PaymentMethodBankTransfer:
		return "bacs"
	case enums.PaymentMethodCard:
		return "stripe"
	case enums.PaymentMethodPayPal:
		return "paypal"
	default:
		return string(method)
	}
}

func methodFromGateway(gateway string) enums.PaymentMethod {
	switch gateway {
	case "bacs":
		return enums.PaymentMethodBankTransfer
	case "stripe":
		return enums.PaymentMethodCard
	case "paypal":
		return enums.PaymentMethodPayPal
	default:
		return enums.PaymentMethod(gateway)
	}
}
