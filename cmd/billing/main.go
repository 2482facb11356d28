package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/zalingo/billing/internal/checkout"
	"github.com/zalingo/billing/internal/clock"
	"github.com/zalingo/billing/internal/config"
	"github.com/zalingo/billing/internal/entitlement"
	"github.com/zalingo/billing/internal/events"
	"github.com/zalingo/billing/internal/migration"
	"github.com/zalingo/billing/internal/observability"
	"github.com/zalingo/billing/internal/payment"
	"github.com/zalingo/billing/internal/plan"
	"github.com/zalingo/billing/internal/server"
	"github.com/zalingo/billing/pkg/db"
)

var version = "dev"

func main() {
	observability.Version = version
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),
		plan.Module,
		events.Module,
		entitlement.Module,
		checkout.Module,
		payment.Module,
		server.Module,
	)
	app.Run()
}
