// Package config handles loading and managing application configuration.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Payment   PaymentConfig
	Shipping  ShippingConfig
	Auth      AuthConfig
	Mail      MailConfig
	Telemetry TelemetryConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	GinMode         string // "debug", "release", or "test"
	PublicURL       string // storefront origin, used for redirect URLs
	APIURL          string // public origin of this service, used for the webhook URL
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnectAttempts int
	Migrate         bool
}

// PaymentConfig holds hosted checkout settings.
type PaymentConfig struct {
	AccessToken        string
	Currency           string
	WebhookSecret      string
	SignatureTolerance time.Duration
	SuccessURL         string
	CancelURL          string
	Sandbox            bool
}

// ShippingConfig holds tariffs in minor currency units.
type ShippingConfig struct {
	LocalCost    int64
	NationalCost int64
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string
}

// MailConfig holds the transactional email provider settings.
type MailConfig struct {
	APIKey        string
	BaseURL       string
	From          string
	NotifyTimeout time.Duration
}

// TelemetryConfig holds OpenTelemetry exporter settings. An empty endpoint
// leaves the no-op providers in place.
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// ReconcileConfig holds the inventory reconciliation sweep settings.
type ReconcileConfig struct {
	Interval  time.Duration // 0 disables the background sweep
	BatchSize int
}

// Load reads configuration from environment variables, after loading a .env
// file when one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	publicURL := strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:3000"), "/")
	apiURL := strings.TrimRight(getEnv("API_URL", "http://localhost:8080"), "/")

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			PublicURL:       publicURL,
			APIURL:          apiURL,
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{publicURL}),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", buildDatabaseURL()),
			MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns:        int32(getEnvInt("DB_MIN_CONNS", 2)),
			ConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 30),
			Migrate:         getEnvBool("DB_MIGRATE", true),
		},
		Payment: PaymentConfig{
			AccessToken:        getEnv("MP_ACCESS_TOKEN", ""),
			Currency:           getEnv("PAYMENT_CURRENCY", "MXN"),
			WebhookSecret:      getEnv("PAYMENT_WEBHOOK_SECRET", ""),
			SignatureTolerance: getEnvDuration("SIGNATURE_TOLERANCE", 5*time.Minute),
			SuccessURL:         getEnv("SUCCESS_URL", publicURL+"/checkout/success"),
			CancelURL:          getEnv("CANCEL_URL", publicURL+"/carrito"),
			Sandbox:            getEnvBool("MP_SANDBOX", false),
		},
		Shipping: ShippingConfig{
			LocalCost:    int64(getEnvInt("SHIPPING_LOCAL_COST", 5000)),
			NationalCost: int64(getEnvInt("SHIPPING_NATIONAL_COST", 12000)),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Mail: MailConfig{
			APIKey:        getEnv("RESEND_API_KEY", ""),
			BaseURL:       getEnv("RESEND_BASE_URL", "https://api.resend.com"),
			From:          getEnv("MAIL_FROM", "Office Gama <pedidos@officegama.mx>"),
			NotifyTimeout: getEnvDuration("MAIL_TIMEOUT", 10*time.Second),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  getEnv("SERVICE_NAME", "office-gama-api"),
		},
		Reconcile: ReconcileConfig{
			Interval:  getEnvDuration("RECONCILE_INTERVAL", 5*time.Minute),
			BatchSize: getEnvInt("RECONCILE_BATCH", 200),
		},
	}
}

// WebhookURL is the address the payment provider posts confirmations to.
func (c *Config) WebhookURL() string {
	return c.Server.APIURL + "/api/v1/webhooks/payments"
}

// buildDatabaseURL assembles a DSN from DB_* parts when DB_HOST is set.
func buildDatabaseURL() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", ""),
		host,
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "office_gama"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer with a fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean with a fallback.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
