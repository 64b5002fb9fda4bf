// Package seed bootstraps a fresh deployment with a default organization and
// a superadmin account, driven by environment configuration.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/insightdeck/insightdeck/internal/config"
	orgdomain "github.com/insightdeck/insightdeck/internal/organization/domain"
	orgservice "github.com/insightdeck/insightdeck/internal/organization/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Invoke(Bootstrap),
)

// Bootstrap ensures the default organization and superadmin exist. It is
// idempotent and a no-op when BOOTSTRAP_TOKEN is unset.
func Bootstrap(cfg config.Config, orgs orgservice.Service, log *zap.Logger) error {
	log = log.Named("seed")
	if cfg.BootstrapToken == "" {
		log.Debug("no bootstrap token configured, skipping seed")
		return nil
	}
	ctx := context.Background()

	if user, err := orgs.FindUserByToken(ctx, cfg.BootstrapToken); err == nil {
		log.Debug("bootstrap user already present", zap.String("user_id", user.ID.String()))
		return nil
	} else if !errors.Is(err, orgdomain.ErrInvalidToken) {
		return err
	}

	var org *orgdomain.Organization
	if cfg.DefaultOrgID > 0 {
		existing, err := orgs.GetOrganization(ctx, snowflake.ID(cfg.DefaultOrgID))
		if err != nil && !errors.Is(err, orgdomain.ErrNotFound) {
			return err
		}
		org = existing
	}
	if org != nil {
		return attachSuperAdmin(ctx, cfg, orgs, log, org)
	}

	org, err := orgs.CreateOrganization(ctx, orgservice.CreateOrganizationRequest{Name: "Default"})
	if err != nil {
		if !errors.Is(err, orgdomain.ErrAlreadyExists) {
			return err
		}
		existing, listErr := orgs.ListOrganizations(ctx)
		if listErr != nil {
			return listErr
		}
		if len(existing) == 0 {
			return err
		}
		org = existing[0]
	}

	return attachSuperAdmin(ctx, cfg, orgs, log, org)
}

func attachSuperAdmin(ctx context.Context, cfg config.Config, orgs orgservice.Service, log *zap.Logger, org *orgdomain.Organization) error {
	user, err := orgs.CreateUser(ctx, orgservice.CreateUserRequest{
		Email: "admin@insightdeck.local",
		Name:  "Bootstrap Admin",
		Token: cfg.BootstrapToken,
		OrgID: org.ID,
		Role:  orgdomain.RoleSuperAdmin,
	})
	if err != nil {
		return err
	}

	log.Info("bootstrap superadmin created",
		zap.String("org_id", org.ID.String()),
		zap.String("user_id", user.ID.String()),
	)
	return nil
}
