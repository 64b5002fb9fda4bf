package upload

import (
	"github.com/insightdeck/insightdeck/internal/record"
	"github.com/insightdeck/insightdeck/internal/upload/domain"
	"github.com/insightdeck/insightdeck/internal/upload/service"
	"github.com/insightdeck/insightdeck/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("upload",
	fx.Provide(
		repository.ProvideStore[domain.Upload],
		repository.ProvideStore[record.AdRecord],
		repository.ProvideStore[record.ShipmentRecord],
		repository.ProvideStore[record.OrderRecord],
		service.New,
	),
)
