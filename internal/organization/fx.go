package organization

import (
	"github.com/insightdeck/insightdeck/internal/organization/domain"
	"github.com/insightdeck/insightdeck/internal/organization/service"
	"github.com/insightdeck/insightdeck/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("organization",
	fx.Provide(
		repository.ProvideStore[domain.Organization],
		repository.ProvideStore[domain.User],
		repository.ProvideStore[domain.OrganizationMember],
		service.New,
	),
)
