// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every externally provided setting. Required secrets are
// validated at load time so a misconfigured process refuses to start.
type Config struct {
	Environment string
	HTTPAddr    string

	DatabaseURL string

	StripeSecretKey     string
	StripeWebhookSecret string

	// FrontendURL is the public base URL checkout redirects back to.
	FrontendURL string

	// CatalogPath optionally points at a JSON plan catalog file. Empty
	// means the compiled-in catalog is used.
	CatalogPath string

	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration

	Tracing TracingConfig
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment, honoring a local .env
// file when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StripeSecretKey:     strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
		StripeWebhookSecret: strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET")),
		FrontendURL:         getEnv("FRONTEND_URL", "https://zalingo.com"),
		CatalogPath:         strings.TrimSpace(os.Getenv("CATALOG_PATH")),
		CheckoutRateLimit:   getEnvInt("CHECKOUT_RATE_LIMIT", 30),
		CheckoutRateWindow:  getEnvDuration("CHECKOUT_RATE_WINDOW", time.Minute),
		Tracing: TracingConfig{
			Enabled:          getEnvBool("TRACING_ENABLED", false),
			ExporterEndpoint: strings.TrimSpace(os.Getenv("OTEL_EXPORTER_ENDPOINT")),
			ExporterProtocol: getEnv("OTEL_EXPORTER_PROTOCOL", "http"),
			SamplingRatio:    getEnvFloat("TRACING_SAMPLING_RATIO", 1.0),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.StripeWebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.CheckoutRateLimit <= 0 {
		return errors.New("CHECKOUT_RATE_LIMIT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
