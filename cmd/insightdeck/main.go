package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/insightdeck/insightdeck/internal/analytics"
	"github.com/insightdeck/insightdeck/internal/authorization"
	"github.com/insightdeck/insightdeck/internal/config"
	"github.com/insightdeck/insightdeck/internal/migration"
	"github.com/insightdeck/insightdeck/internal/observability"
	"github.com/insightdeck/insightdeck/internal/organization"
	"github.com/insightdeck/insightdeck/internal/seed"
	"github.com/insightdeck/insightdeck/internal/server"
	"github.com/insightdeck/insightdeck/internal/upload"
	"github.com/insightdeck/insightdeck/pkg/db"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		config.Module,
		observability.Module,
		db.Module,
		fx.Provide(newSnowflakeNode),
		migration.Module,
		organization.Module,
		authorization.Module,
		upload.Module,
		analytics.Module,
		seed.Module,
		server.Module,
	).Run()
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
