package payment

import (
	"go.uber.org/fx"

	"github.com/zalingo/billing/internal/config"
	"github.com/zalingo/billing/internal/payment/adapters/stripe"
	paymentdomain "github.com/zalingo/billing/internal/payment/domain"
	"github.com/zalingo/billing/internal/payment/repository"
	"github.com/zalingo/billing/internal/payment/service"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) paymentdomain.PaymentAdapter {
		return stripe.NewAdapter(cfg.StripeWebhookSecret)
	}),
	fx.Provide(service.NewService),
)
