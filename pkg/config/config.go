package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Woo       WooConfig
	Stripe    StripeConfig
	PayPal    PayPalConfig
	Checkout  CheckoutConfig
	Reconcile ReconcileConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BODENHAUS_APP_ENV" required:"true"`
	Port         string `envconfig:"BODENHAUS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BODENHAUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BODENHAUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, "prod")
}

type DBConfig struct {
	DSN    string `envconfig:"BODENHAUS_DB_DSN"`
	Driver string `envconfig:"BODENHAUS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BODENHAUS_DB_HOST"`
	Port     int    `envconfig:"BODENHAUS_DB_PORT" default:"5432"`
	User     string `envconfig:"BODENHAUS_DB_USER"`
	Password string `envconfig:"BODENHAUS_DB_PASSWORD"`
	Name     string `envconfig:"BODENHAUS_DB_NAME"`
	SSLMode  string `envconfig:"BODENHAUS_DB_SSLMODE" default:"disable"`

	AutoMigrate bool `envconfig:"BODENHAUS_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"BODENHAUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BODENHAUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BODENHAUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BODENHAUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BODENHAUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BODENHAUS_REDIS_ADDR"`
	Password     string        `envconfig:"BODENHAUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"BODENHAUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BODENHAUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BODENHAUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BODENHAUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BODENHAUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BODENHAUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type WooConfig struct {
	BaseURL        string        `envconfig:"BODENHAUS_WOO_BASE_URL" required:"true"`
	ConsumerKey    string        `envconfig:"BODENHAUS_WOO_CONSUMER_KEY" required:"true"`
	ConsumerSecret string        `envconfig:"BODENHAUS_WOO_CONSUMER_SECRET" required:"true"`
	Timeout        time.Duration `envconfig:"BODENHAUS_WOO_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey     string `envconfig:"BODENHAUS_STRIPE_API_KEY"`
	Secret     string `envconfig:"BODENHAUS_STRIPE_WEBHOOK_SECRET"`
	Env        string `envconfig:"BODENHAUS_STRIPE_ENV" default:"test"`
	SuccessURL string `envconfig:"BODENHAUS_STRIPE_SUCCESS_URL" required:"true"`
	CancelURL  string `envconfig:"BODENHAUS_STRIPE_CANCEL_URL" required:"true"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PayPalConfig struct {
	ClientID  string        `envconfig:"BODENHAUS_PAYPAL_CLIENT_ID"`
	Secret    string        `envconfig:"BODENHAUS_PAYPAL_SECRET"`
	Env       string        `envconfig:"BODENHAUS_PAYPAL_ENV" default:"sandbox"`
	ReturnURL string        `envconfig:"BODENHAUS_PAYPAL_RETURN_URL" required:"true"`
	CancelURL string        `envconfig:"BODENHAUS_PAYPAL_CANCEL_URL" required:"true"`
	Timeout   time.Duration `envconfig:"BODENHAUS_PAYPAL_TIMEOUT" default:"8s"`
}

type CheckoutConfig struct {
	SuccessPage    string        `envconfig:"BODENHAUS_CHECKOUT_SUCCESS_PAGE" required:"true"`
	FailurePage    string        `envconfig:"BODENHAUS_CHECKOUT_FAILURE_PAGE" required:"true"`
	StartRetries   int           `envconfig:"BODENHAUS_CHECKOUT_START_RETRIES" default:"2"`
	StartBackoff   time.Duration `envconfig:"BODENHAUS_CHECKOUT_START_BACKOFF" default:"250ms"`
	RequestTimeout time.Duration `envconfig:"BODENHAUS_CHECKOUT_REQUEST_TIMEOUT" default:"8s"`
}

type ReconcileConfig struct {
	// IdempotencyTTL must exceed the providers' maximum webhook retry window.
	IdempotencyTTL  time.Duration `envconfig:"BODENHAUS_RECONCILE_IDEMPOTENCY_TTL" default:"720h"`
	MaxWriteRetries int           `envconfig:"BODENHAUS_RECONCILE_MAX_WRITE_RETRIES" default:"3"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	if db.Host == "" {
		missing = append(missing, "BODENHAUS_DB_HOST")
	}
	if db.User == "" {
		missing = append(missing, "BODENHAUS_DB_USER")
	}
	if db.Name == "" {
		missing = append(missing, "BODENHAUS_DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("either BODENHAUS_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
