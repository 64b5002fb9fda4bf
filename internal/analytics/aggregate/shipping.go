package aggregate

import (
	"strings"

	"github.com/insightdeck/insightdeck/internal/analytics/engine"
	"github.com/insightdeck/insightdeck/internal/ingest"
	"github.com/insightdeck/insightdeck/internal/record"
)

// ShippingMetrics is the shipping dashboard report.
type ShippingMetrics struct {
	TotalShipments     int                `json:"total_shipments"`
	DeliveredCount     int                `json:"delivered_count"`
	DeliveryRate       float64            `json:"delivery_rate"`
	TotalCODAmount     float64            `json:"total_cod_amount"`
	CollectedCODAmount float64            `json:"collected_cod_amount"`
	CODCollectionRate  float64            `json:"cod_collection_rate"`
	TotalShippingFee   float64            `json:"total_shipping_fee"`
	WeightDiscrepancy  float64            `json:"weight_discrepancy"`
	StatusDistribution []engine.NameValue `json:"status_distribution"`
	ShipmentsByCourier []engine.NameValue `json:"shipments_by_courier"`
	DeliveryByCourier  []engine.NameValue `json:"delivery_by_courier"`
	ShipmentsByDate    []engine.DayBucket `json:"shipments_by_date"`
	MalformedDates     int                `json:"malformed_dates"`
}

// ShippingConfig reads ShipmentRecord for the engine. Rows without a tracking
// id are persisted but never aggregated.
var ShippingConfig = engine.Config[record.ShipmentRecord]{
	Include:  func(r record.ShipmentRecord) bool { return r.HasTrackingID },
	Day:      func(r record.ShipmentRecord) string { return r.Date },
	DayValid: func(r record.ShipmentRecord) bool { return !r.DateFallback },
	Field: func(r record.ShipmentRecord, name string) string {
		switch name {
		case ingest.FieldCourier:
			return r.Courier
		case ingest.FieldStatus:
			return r.Status
		}
		return ""
	},
}

func FilterShipments(records []record.ShipmentRecord, f engine.FilterSpec) []record.ShipmentRecord {
	return ShippingConfig.Filter(records, f)
}

func isDelivered(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "delivered")
}

// AggregateShipping computes the shipping report over records.
func AggregateShipping(records []record.ShipmentRecord) ShippingMetrics {
	records = ShippingConfig.Gate(records)

	m := ShippingMetrics{TotalShipments: len(records)}
	status := engine.NewDistribution()
	byCourier := engine.NewDistribution()
	deliveryRate := engine.NewGroupRate()
	for _, r := range records {
		if isDelivered(r.Status) {
			m.DeliveredCount++
			deliveryRate.Add(r.Courier, 1, 1)
		} else {
			deliveryRate.Add(r.Courier, 0, 1)
		}
		m.TotalCODAmount += r.CODAmount
		m.CollectedCODAmount += r.CODCollectedAmount
		m.TotalShippingFee += r.ShippingFee
		m.WeightDiscrepancy += r.ChargedWeight - r.DeclaredWeight
		status.Add(r.Status, 1)
		byCourier.Add(r.Courier, 1)
		if r.DateFallback {
			m.MalformedDates++
		}
	}

	m.DeliveryRate = deliveryRate.Overall()
	m.CODCollectionRate = engine.Rate(m.CollectedCODAmount, m.TotalCODAmount)
	m.StatusDistribution = status.Entries()
	m.ShipmentsByCourier = byCourier.Entries()
	m.DeliveryByCourier = deliveryRate.PerGroup()
	m.ShipmentsByDate = ShippingConfig.BucketByDay(records, map[string]func(record.ShipmentRecord) float64{
		"cod_amount":   func(r record.ShipmentRecord) float64 { return r.CODAmount },
		"shipping_fee": func(r record.ShipmentRecord) float64 { return r.ShippingFee },
	})
	return m
}
