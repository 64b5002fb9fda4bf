package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/insightdeck/insightdeck/internal/analytics/aggregate"
	"github.com/insightdeck/insightdeck/internal/analytics/engine"
	"github.com/insightdeck/insightdeck/internal/exportcsv"
	"github.com/insightdeck/insightdeck/internal/record"
	"github.com/insightdeck/insightdeck/pkg/db/option"
	"github.com/insightdeck/insightdeck/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidSource = errors.New("invalid_source")

type Params struct {
	fx.In

	Log       *zap.Logger
	Ads       repository.Repository[record.AdRecord]
	Shipments repository.Repository[record.ShipmentRecord]
	Orders    repository.Repository[record.OrderRecord]
}

type service struct {
	log       *zap.Logger
	ads       repository.Repository[record.AdRecord]
	shipments repository.Repository[record.ShipmentRecord]
	orders    repository.Repository[record.OrderRecord]
}

func New(p Params) Service {
	return &service{
		log:       p.Log.Named("analytics.service"),
		ads:       p.Ads,
		shipments: p.Shipments,
		orders:    p.Orders,
	}
}

// fetch pulls an organization's records, pushing the date range into SQL.
// Equality filters run in memory through the engine so the result is exactly
// filter-then-aggregate.
func fetch[T any](
	ctx context.Context,
	repo repository.Repository[T],
	query *T,
	cfg engine.Config[T],
	f engine.FilterSpec,
) ([]T, bool, error) {
	total, err := repo.Count(ctx, query)
	if err != nil {
		return nil, false, err
	}

	rows, err := repo.Find(ctx, query,
		option.WithDateRange("date", f.StartDate, f.EndDate),
		option.WithOrder("date ASC, id ASC"),
	)
	if err != nil {
		return nil, false, err
	}

	records := make([]T, 0, len(rows))
	for _, row := range rows {
		records = append(records, *row)
	}
	return cfg.Filter(records, engine.FilterSpec{Equals: f.Equals}), total > 0, nil
}

func (s *service) AdsDashboard(ctx context.Context, orgID snowflake.ID, f engine.FilterSpec) (*AdsDashboard, error) {
	records, hasData, err := fetch(ctx, s.ads, &record.AdRecord{OrgID: orgID}, aggregate.AdConfig, f)
	if err != nil {
		return nil, err
	}
	return &AdsDashboard{
		HasData: hasData,
		Filters: f,
		Metrics: aggregate.AggregateAds(records),
	}, nil
}

func (s *service) ShippingDashboard(ctx context.Context, orgID snowflake.ID, f engine.FilterSpec) (*ShippingDashboard, error) {
	records, hasData, err := fetch(ctx, s.shipments, &record.ShipmentRecord{OrgID: orgID}, aggregate.ShippingConfig, f)
	if err != nil {
		return nil, err
	}
	return &ShippingDashboard{
		HasData: hasData,
		Filters: f,
		Metrics: aggregate.AggregateShipping(records),
	}, nil
}

func (s *service) CommerceDashboard(ctx context.Context, orgID snowflake.ID, f engine.FilterSpec) (*CommerceDashboard, error) {
	records, hasData, err := fetch(ctx, s.orders, &record.OrderRecord{OrgID: orgID}, aggregate.CommerceConfig, f)
	if err != nil {
		return nil, err
	}
	return &CommerceDashboard{
		HasData: hasData,
		Filters: f,
		Metrics: aggregate.AggregateCommerce(records),
	}, nil
}

func (s *service) ExportCSV(ctx context.Context, orgID snowflake.ID, source record.Source, f engine.FilterSpec) (string, error) {
	switch source {
	case record.SourceAds:
		records, _, err := fetch(ctx, s.ads, &record.AdRecord{OrgID: orgID}, aggregate.AdConfig, f)
		if err != nil {
			return "", err
		}
		return exportcsv.ToDelimitedText(exportcsv.AdRows(records))
	case record.SourceShipping:
		records, _, err := fetch(ctx, s.shipments, &record.ShipmentRecord{OrgID: orgID}, aggregate.ShippingConfig, f)
		if err != nil {
			return "", err
		}
		return exportcsv.ToDelimitedText(exportcsv.ShipmentRows(records))
	case record.SourceCommerce:
		records, _, err := fetch(ctx, s.orders, &record.OrderRecord{OrgID: orgID}, aggregate.CommerceConfig, f)
		if err != nil {
			return "", err
		}
		return exportcsv.ToDelimitedText(exportcsv.OrderRows(records))
	}
	return "", ErrInvalidSource
}
