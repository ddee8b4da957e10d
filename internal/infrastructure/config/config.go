package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageDynamoDB = "dynamodb"
	StorageMemory   = "memory"
)

// Config is the service configuration, read from the environment.
//
// A .env file is loaded by cmd/api through godotenv/autoload before Load runs.
type Config struct {
	Port          int
	StorageDriver string
	MockMode      bool

	Retry     RetryConfig
	Webhook   WebhookConfig
	Reconcile ReconcileConfig

	MercadoPagoAccessToken    string
	MercadoPagoWebhookSecret  string
	MercadoPagoTestPayerEmail string
	SandboxWebhookSecret      string
}

// RetryConfig bounds the router's retry loop around provider calls.
type RetryConfig struct {
	CallTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

type WebhookConfig struct {
	DedupRetention time.Duration
}

type ReconcileConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	BaseDelay    time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		CallTimeout:    10 * time.Second,
		MaxAttempts:    5,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
	}
}

func DefaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		PollInterval: 5 * time.Second,
		MaxAttempts:  10,
		BaseDelay:    2 * time.Second,
	}
}

// WithDefaults fills zero values with the defaults.
func (c RetryConfig) WithDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.CallTimeout <= 0 {
		c.CallTimeout = d.CallTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.Multiplier < 1 {
		c.Multiplier = d.Multiplier
	}
	return c
}

func (c ReconcileConfig) WithDefaults() ReconcileConfig {
	d := DefaultReconcileConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	return c
}

func Load() Config {
	retry := DefaultRetryConfig()
	reconcile := DefaultReconcileConfig()

	return Config{
		Port:          getenvInt("PORT", 8080),
		StorageDriver: strings.ToLower(getenvDefault("STORAGE_DRIVER", StorageDynamoDB)),
		MockMode:      IsPaymentGatewayMockEnabled(),
		Retry: RetryConfig{
			CallTimeout:    getenvDuration("PROVIDER_CALL_TIMEOUT", retry.CallTimeout),
			MaxAttempts:    getenvInt("PROVIDER_MAX_ATTEMPTS", retry.MaxAttempts),
			InitialBackoff: getenvDuration("PROVIDER_INITIAL_BACKOFF", retry.InitialBackoff),
			MaxBackoff:     getenvDuration("PROVIDER_MAX_BACKOFF", retry.MaxBackoff),
			Multiplier:     retry.Multiplier,
		},
		Webhook: WebhookConfig{
			DedupRetention: getenvDuration("WEBHOOK_DEDUP_RETENTION", 72*time.Hour),
		},
		Reconcile: ReconcileConfig{
			PollInterval: getenvDuration("RECONCILE_INTERVAL", reconcile.PollInterval),
			MaxAttempts:  getenvInt("RECONCILE_MAX_ATTEMPTS", reconcile.MaxAttempts),
			BaseDelay:    reconcile.BaseDelay,
		},
		MercadoPagoAccessToken:    strings.TrimSpace(os.Getenv("MERCADOPAGO_ACCESS_TOKEN")),
		MercadoPagoWebhookSecret:  strings.TrimSpace(os.Getenv("MERCADOPAGO_WEBHOOK_SECRET")),
		MercadoPagoTestPayerEmail: strings.TrimSpace(os.Getenv("MERCADOPAGO_TEST_PAYER_EMAIL")),
		SandboxWebhookSecret:      getenvDefault("SANDBOX_WEBHOOK_SECRET", "sandbox-secret"),
	}
}

// IsPaymentGatewayMockEnabled reports whether Mercado Pago calls should be served in memory.
func IsPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
