// Package observability wires logging, tracing and metrics.
package observability

import (
	"go.uber.org/fx"

	"github.com/zalingo/billing/internal/config"
	"github.com/zalingo/billing/internal/observability/logger"
	"github.com/zalingo/billing/internal/observability/metrics"
	"github.com/zalingo/billing/internal/observability/tracing"
)

const serviceName = "zalingo-billing"

// Version is stamped at build time.
var Version = "dev"

var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(func(cfg config.Config) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Tracing.Enabled,
			ServiceName:      serviceName,
			ServiceVersion:   Version,
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
			ExporterProtocol: cfg.Tracing.ExporterProtocol,
			SamplingRatio:    cfg.Tracing.SamplingRatio,
		}
	}),
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{
			ServiceName: serviceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(metrics.NewMeterProvider),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(metrics.BillingWithConfig),
	fx.Invoke(tracing.NewProvider),
)
