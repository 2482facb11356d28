package plan

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/zalingo/billing/internal/config"
)

var Module = fx.Module("plan",
	fx.Provide(func(cfg config.Config, log *zap.Logger) (*Catalog, error) {
		if cfg.CatalogPath == "" {
			return Default(), nil
		}
		catalog, err := LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		log.Info("plan catalog loaded",
			zap.String("path", cfg.CatalogPath),
			zap.Int("plans", catalog.Len()),
		)
		return catalog, nil
	}),
)
