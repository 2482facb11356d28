package entitlement

import (
	"go.uber.org/fx"

	"github.com/zalingo/billing/internal/entitlement/repository"
	"github.com/zalingo/billing/internal/entitlement/service"
)

var Module = fx.Module("entitlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
