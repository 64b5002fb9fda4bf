package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/insightdeck/insightdeck/internal/analytics/aggregate"
	"github.com/insightdeck/insightdeck/internal/analytics/engine"
	"github.com/insightdeck/insightdeck/internal/record"
)

// AdsDashboard is the advertising dashboard payload. HasData reflects the
// organization's unfiltered record count, so the client can distinguish "no
// data at all" from "nothing matches the filter".
type AdsDashboard struct {
	HasData bool                `json:"has_data"`
	Filters engine.FilterSpec   `json:"filters"`
	Metrics aggregate.AdMetrics `json:"metrics"`
}

type ShippingDashboard struct {
	HasData bool                      `json:"has_data"`
	Filters engine.FilterSpec         `json:"filters"`
	Metrics aggregate.ShippingMetrics `json:"metrics"`
}

type CommerceDashboard struct {
	HasData bool                      `json:"has_data"`
	Filters engine.FilterSpec         `json:"filters"`
	Metrics aggregate.CommerceMetrics `json:"metrics"`
}

// Service serves dashboard reports and record exports.
type Service interface {
	AdsDashboard(ctx context.Context, orgID snowflake.ID, f engine.FilterSpec) (*AdsDashboard, error)
	ShippingDashboard(ctx context.Context, orgID snowflake.ID, f engine.FilterSpec) (*ShippingDashboard, error)
	CommerceDashboard(ctx context.Context, orgID snowflake.ID, f engine.FilterSpec) (*CommerceDashboard, error)
	// ExportCSV renders the organization's filtered records of one source
	// as delimited text.
	ExportCSV(ctx context.Context, orgID snowflake.ID, source record.Source, f engine.FilterSpec) (string, error)
}
