package checkout

import (
	"go.uber.org/fx"

	"github.com/zalingo/billing/internal/checkout/service"
)

var Module = fx.Module("checkout.service",
	fx.Provide(service.NewSessionCreator),
	fx.Provide(service.NewService),
)
