package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"BILLING_APP_NAME":         os.Getenv("BILLING_APP_NAME"),
		"BILLING_APP_ENV":          os.Getenv("BILLING_APP_ENV"),
		"BILLING_APP_PORT":         os.Getenv("BILLING_APP_PORT"),
		"BILLING_LOG_LEVEL":        os.Getenv("BILLING_LOG_LEVEL"),
		"BILLING_BILLING_VAT_RATE": os.Getenv("BILLING_BILLING_VAT_RATE"),
		"BILLING_BILLING_CURRENCY": os.Getenv("BILLING_BILLING_CURRENCY"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "billing-engine", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
		assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout)
		assert.InDelta(t, 0.10, cfg.Billing.VATRate, 1e-9)
		assert.Equal(t, "KRW", cfg.Billing.Currency)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("env vars override defaults", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLING_APP_ENV", "production")
		os.Setenv("BILLING_APP_PORT", "9090")
		os.Setenv("BILLING_LOG_LEVEL", "debug")
		os.Setenv("BILLING_BILLING_VAT_RATE", "0.20")
		os.Setenv("BILLING_BILLING_CURRENCY", "USD")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "production", cfg.App.Env)
		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.InDelta(t, 0.20, cfg.Billing.VATRate, 1e-9)
		assert.Equal(t, "USD", cfg.Billing.Currency)
		assert.True(t, cfg.IsProduction())
	})

	t.Run("rejects out of range vat rate", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLING_BILLING_VAT_RATE", "1.5")

		_, err := Load()
		assert.Error(t, err)
	})
}
