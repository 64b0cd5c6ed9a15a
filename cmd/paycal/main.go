package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/paycalhq/paycal/internal/audit"
	"github.com/paycalhq/paycal/internal/calendar"
	"github.com/paycalhq/paycal/internal/clock"
	"github.com/paycalhq/paycal/internal/config"
	"github.com/paycalhq/paycal/internal/dunning"
	"github.com/paycalhq/paycal/internal/events"
	"github.com/paycalhq/paycal/internal/migration"
	"github.com/paycalhq/paycal/internal/obligation"
	"github.com/paycalhq/paycal/internal/observability"
	"github.com/paycalhq/paycal/internal/payment"
	"github.com/paycalhq/paycal/internal/schedule"
	"github.com/paycalhq/paycal/internal/seed"
	"github.com/paycalhq/paycal/internal/server"
	"github.com/paycalhq/paycal/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,

		fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if err := seed.EnsureDefaultOrg(conn, node); err != nil {
				return err
			}
			if !cfg.IsProduction() {
				return seed.EnsureDevAPIKey(conn, node)
			}
			return nil
		}),

		events.Module,
		audit.Module,
		schedule.Module,
		obligation.Module,
		payment.Module,
		calendar.Module,
		dunning.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
