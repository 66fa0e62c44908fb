package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PUBLIC_URL", "https://officegama.mx/")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://officegama.mx/checkout/success", cfg.Payment.SuccessURL)
	assert.Equal(t, "https://officegama.mx/carrito", cfg.Payment.CancelURL)
	assert.Equal(t, []string{"https://officegama.mx"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(5000), cfg.Shipping.LocalCost)
	assert.Equal(t, int64(12000), cfg.Shipping.NationalCost)
	assert.Equal(t, "MXN", cfg.Payment.Currency)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.Interval)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("RECONCILE_INTERVAL", "0s")
	t.Setenv("SHIPPING_LOCAL_COST", "7000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.mx, https://b.mx,")
	t.Setenv("API_URL", "https://api.officegama.mx")

	cfg := Load()

	assert.Equal(t, "postgres://shop:secret@db:5432/office_gama?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, time.Duration(0), cfg.Reconcile.Interval)
	assert.Equal(t, int64(7000), cfg.Shipping.LocalCost)
	assert.Equal(t, []string{"https://a.mx", "https://b.mx"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "https://api.officegama.mx/api/v1/webhooks/payments", cfg.WebhookURL())
}
