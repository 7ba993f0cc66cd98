package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig
	Log     LogConfig
	HTTP    HTTPConfig
	Billing BillingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// FeeRateConfig overrides the fee pricing for one payment method
type FeeRateConfig struct {
	Rate     float64
	FixedFee float64
}

// BillingConfig holds the calculation engine settings
type BillingConfig struct {
	// VATRate is the value-added tax rate applied to the post-credit charge
	VATRate float64
	// Currency is the default statement currency
	Currency string
	// FeeRates overrides the default gateway fee schedule per payment
	// method; methods not listed keep their defaults
	FeeRates map[string]FeeRateConfig
}

// Load reads configuration from config.yaml (if present) and BILLING_*
// environment variables, with sensible defaults for everything.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "billing-engine")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "15s")

	v.SetDefault("billing.vat_rate", 0.10)
	v.SetDefault("billing.currency", "KRW")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is a real failure.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		Billing: BillingConfig{
			VATRate:  v.GetFloat64("billing.vat_rate"),
			Currency: v.GetString("billing.currency"),
		},
	}

	if v.IsSet("billing.fee_rates") {
		cfg.Billing.FeeRates = make(map[string]FeeRateConfig)
		for method := range v.GetStringMap("billing.fee_rates") {
			key := "billing.fee_rates." + method
			cfg.Billing.FeeRates[strings.ToUpper(method)] = FeeRateConfig{
				Rate:     v.GetFloat64(key + ".rate"),
				FixedFee: v.GetFloat64(key + ".fixed_fee"),
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Billing.VATRate < 0 || c.Billing.VATRate >= 1 {
		return fmt.Errorf("billing.vat_rate must be in [0, 1), got %v", c.Billing.VATRate)
	}
	if c.App.Port == "" {
		return fmt.Errorf("app.port cannot be empty")
	}
	return nil
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
