package paypal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/plutov/paypal/v4"

	"github.com/bodenhaus/checkout-backend/pkg/config"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
)

const (
	sandboxEnv = "sandbox"
	liveEnv    = "live"
)

var (
	errCredentialsRequired = errors.New("paypal client id and secret are required")
	errInvalidPayPalEnv    = fmt.Errorf("paypal environment must be %q or %q", sandboxEnv, liveEnv)
)

// Client wraps the PayPal REST client with env-specific metadata.
type Client struct {
	api         *paypal.Client
	environment string
}

// NewClient builds a PayPal client and obtains an initial access token.
func NewClient(ctx context.Context, cfg config.PayPalConfig, logg *logger.Logger) (*Client, error) {
	env := strings.TrimSpace(strings.ToLower(cfg.Env))
	if env == "" {
		env = sandboxEnv
	}

	var apiBase string
	switch env {
	case sandboxEnv:
		apiBase = paypal.APIBaseSandBox
	case liveEnv:
		apiBase = paypal.APIBaseLive
	default:
		return nil, errInvalidPayPalEnv
	}

	clientID := strings.TrimSpace(cfg.ClientID)
	secret := strings.TrimSpace(cfg.Secret)
	if clientID == "" || secret == "" {
		return nil, errCredentialsRequired
	}

	api, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	api.Client = &http.Client{Timeout: timeout}

	if _, err := api.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("paypal token exchange: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("paypal client initialized (%s)", env))
	}

	return &Client{api: api, environment: env}, nil
}

// CreateOrder creates a PayPal order with capture intent.
func (c *Client) CreateOrder(ctx context.Context, units []paypal.PurchaseUnitRequest, appContext *paypal.ApplicationContext) (*paypal.Order, error) {
	return c.api.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appContext)
}

// CaptureOrder finalizes a provisionally-approved PayPal order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureOrderResponse, error) {
	return c.api.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
}

// GetOrder re-queries an order server-side; used instead of trusting
// client-supplied tokens on the capture return leg.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	return c.api.GetOrder(ctx, orderID)
}

// Environment reports the normalized PayPal environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}
