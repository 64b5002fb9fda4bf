// Package aggregate defines the per-domain metric reports. Each report is a
// thin declarative layer over the shared engine: it names the dimensions and
// measures, the engine does the arithmetic.
package aggregate

import (
	"github.com/insightdeck/insightdeck/internal/analytics/engine"
	"github.com/insightdeck/insightdeck/internal/ingest"
	"github.com/insightdeck/insightdeck/internal/record"
)

// AdMetrics is the advertising dashboard report.
type AdMetrics struct {
	TotalRecords     int                `json:"total_records"`
	TotalImpressions float64            `json:"total_impressions"`
	TotalClicks      float64            `json:"total_clicks"`
	TotalSpend       float64            `json:"total_spend"`
	TotalConversions float64            `json:"total_conversions"`
	TotalRevenue     float64            `json:"total_revenue"`
	CTR              float64            `json:"ctr"`
	ConversionRate   float64            `json:"conversion_rate"`
	CostPerClick     float64            `json:"cost_per_click"`
	ROAS             float64            `json:"roas"`
	SpendByPlatform  []engine.NameValue `json:"spend_by_platform"`
	TopCampaigns     []engine.NameValue `json:"top_campaigns"`
	SpendByDate      []engine.DayBucket `json:"spend_by_date"`
	MalformedDates   int                `json:"malformed_dates"`
}

// AdConfig reads AdRecord for the engine. Every ad record participates; the
// domain has no identifier gate.
var AdConfig = engine.Config[record.AdRecord]{
	Day:      func(r record.AdRecord) string { return r.Date },
	DayValid: func(r record.AdRecord) bool { return !r.DateFallback },
	Field: func(r record.AdRecord, name string) string {
		switch name {
		case ingest.FieldCampaign:
			return r.Campaign
		case ingest.FieldPlatform:
			return r.Platform
		}
		return ""
	},
}

// FilterAds applies a filter spec to ad records.
func FilterAds(records []record.AdRecord, f engine.FilterSpec) []record.AdRecord {
	return AdConfig.Filter(records, f)
}

// AggregateAds computes the advertising report over records.
func AggregateAds(records []record.AdRecord) AdMetrics {
	records = AdConfig.Gate(records)

	m := AdMetrics{TotalRecords: len(records)}
	platformSpend := engine.NewDistribution()
	campaignRevenue := engine.NewDistribution()
	for _, r := range records {
		m.TotalImpressions += r.Impressions
		m.TotalClicks += r.Clicks
		m.TotalSpend += r.Spend
		m.TotalConversions += r.Conversions
		m.TotalRevenue += r.Revenue
		platformSpend.Add(r.Platform, r.Spend)
		campaignRevenue.Add(r.Campaign, r.Revenue)
		if r.DateFallback {
			m.MalformedDates++
		}
	}

	m.CTR = engine.Rate(m.TotalClicks, m.TotalImpressions)
	m.ConversionRate = engine.Rate(m.TotalConversions, m.TotalClicks)
	m.CostPerClick = engine.Rate(m.TotalSpend, m.TotalClicks)
	m.ROAS = engine.Rate(m.TotalRevenue, m.TotalSpend)
	m.SpendByPlatform = platformSpend.Entries()
	m.TopCampaigns = engine.TopN(campaignRevenue.Entries(), engine.TopNSize)
	m.SpendByDate = AdConfig.BucketByDay(records, map[string]func(record.AdRecord) float64{
		"spend":   func(r record.AdRecord) float64 { return r.Spend },
		"revenue": func(r record.AdRecord) float64 { return r.Revenue },
	})
	return m
}
