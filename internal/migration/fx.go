package migration

import (
	"strings"

	"github.com/insightdeck/insightdeck/internal/config"
	"github.com/insightdeck/insightdeck/internal/organization/domain"
	"github.com/insightdeck/insightdeck/internal/record"
	uploaddomain "github.com/insightdeck/insightdeck/internal/upload/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migration",
	fx.Invoke(Migrate),
)

// Migrate applies the schema before anything else touches the database.
func Migrate(cfg config.Config, db *gorm.DB, log *zap.Logger) error {
	log = log.Named("migration")

	if strings.EqualFold(cfg.DBType, "postgres") {
		return Run(db, log)
	}

	log.Info("using auto-migration", zap.String("dialect", cfg.DBType))
	return db.AutoMigrate(
		&domain.Organization{},
		&domain.User{},
		&domain.OrganizationMember{},
		&uploaddomain.Upload{},
		&record.AdRecord{},
		&record.ShipmentRecord{},
		&record.OrderRecord{},
	)
}
