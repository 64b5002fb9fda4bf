package aggregate

import (
	"github.com/insightdeck/insightdeck/internal/analytics/engine"
	"github.com/insightdeck/insightdeck/internal/ingest"
	"github.com/insightdeck/insightdeck/internal/record"
)

// CommerceMetrics is the commerce dashboard report.
type CommerceMetrics struct {
	TotalOrders        int                `json:"total_orders"`
	TotalRevenue       float64            `json:"total_revenue"`
	TotalDiscount      float64            `json:"total_discount"`
	TotalQuantity      float64            `json:"total_quantity"`
	AvgOrderValue      float64            `json:"avg_order_value"`
	DiscountPercentage float64            `json:"discount_percentage"`
	UniqueCustomers    int                `json:"unique_customers"`
	RepeatCustomerRate float64            `json:"repeat_customer_rate"`
	StatusDistribution []engine.NameValue `json:"status_distribution"`
	PaymentMethods     []engine.NameValue `json:"payment_methods"`
	TopProducts        []engine.NameValue `json:"top_products"`
	OrderVolumeByDate  []engine.DayBucket `json:"order_volume_by_date"`
	MalformedDates     int                `json:"malformed_dates"`
}

// CommerceConfig reads OrderRecord for the engine. Rows without an order id
// are persisted but never aggregated.
var CommerceConfig = engine.Config[record.OrderRecord]{
	Include:  func(r record.OrderRecord) bool { return r.HasOrderID },
	Day:      func(r record.OrderRecord) string { return r.Date },
	DayValid: func(r record.OrderRecord) bool { return !r.DateFallback },
	Field: func(r record.OrderRecord, name string) string {
		switch name {
		case ingest.FieldStatus:
			return r.Status
		case ingest.FieldPaymentMethod:
			return r.PaymentMethod
		case ingest.FieldProductName:
			return r.ProductName
		}
		return ""
	},
}

func FilterOrders(records []record.OrderRecord, f engine.FilterSpec) []record.OrderRecord {
	return CommerceConfig.Filter(records, f)
}

// AggregateCommerce computes the commerce report over records.
func AggregateCommerce(records []record.OrderRecord) CommerceMetrics {
	records = CommerceConfig.Gate(records)

	m := CommerceMetrics{TotalOrders: len(records)}
	status := engine.NewDistribution()
	payments := engine.NewDistribution()
	productRevenue := engine.NewDistribution()
	ordersByCustomer := make(map[string]int)
	for _, r := range records {
		m.TotalRevenue += r.Total
		m.TotalDiscount += r.Discount
		m.TotalQuantity += r.Quantity
		status.Add(r.Status, 1)
		payments.Add(r.PaymentMethod, 1)
		productRevenue.Add(r.ProductName, r.Total)
		if r.CustomerEmail != "" {
			ordersByCustomer[r.CustomerEmail]++
		}
		if r.DateFallback {
			m.MalformedDates++
		}
	}

	var repeatCustomers int
	for _, orders := range ordersByCustomer {
		if orders > 1 {
			repeatCustomers++
		}
	}
	m.UniqueCustomers = len(ordersByCustomer)
	m.RepeatCustomerRate = engine.Rate(float64(repeatCustomers), float64(m.UniqueCustomers))

	m.AvgOrderValue = engine.Rate(m.TotalRevenue, float64(m.TotalOrders))
	m.DiscountPercentage = engine.Rate(m.TotalDiscount, m.TotalRevenue+m.TotalDiscount)
	m.StatusDistribution = status.Entries()
	m.PaymentMethods = payments.Entries()
	m.TopProducts = engine.TopN(productRevenue.Entries(), engine.TopNSize)
	m.OrderVolumeByDate = CommerceConfig.BucketByDay(records, map[string]func(record.OrderRecord) float64{
		"revenue":  func(r record.OrderRecord) float64 { return r.Total },
		"quantity": func(r record.OrderRecord) float64 { return r.Quantity },
	})
	return m
}
