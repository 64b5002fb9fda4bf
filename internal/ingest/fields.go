// Package ingest turns raw CSV rows into typed records. Field names here are
// canonical: a column mapping translates whatever headers a file ships with
// into these names before normalization runs.
package ingest

import "github.com/insightdeck/insightdeck/internal/record"

// Canonical field names shared by mappings, templates and the normalizer.
const (
	FieldDate = "date"

	FieldCampaign    = "campaign"
	FieldPlatform    = "platform"
	FieldImpressions = "impressions"
	FieldClicks      = "clicks"
	FieldSpend       = "spend"
	FieldConversions = "conversions"
	FieldRevenue     = "revenue"

	FieldTrackingID     = "tracking_id"
	FieldCourier        = "courier"
	FieldStatus         = "status"
	FieldCODAmount      = "cod_amount"
	FieldCODCollected   = "cod_collected_amount"
	FieldDeclaredWeight = "declared_weight"
	FieldChargedWeight  = "charged_weight"
	FieldShippingFee    = "shipping_fee"

	FieldOrderID       = "order_id"
	FieldCustomerEmail = "customer_email"
	FieldProductName   = "product_name"
	FieldQuantity      = "quantity"
	FieldTotal         = "total"
	FieldDiscount      = "discount"
	FieldPaymentMethod = "payment_method"
)

// Fields lists every canonical field of a source, in template column order.
func Fields(source record.Source) []string {
	switch source {
	case record.SourceAds:
		return []string{
			FieldDate, FieldCampaign, FieldPlatform,
			FieldImpressions, FieldClicks, FieldSpend, FieldConversions, FieldRevenue,
		}
	case record.SourceShipping:
		return []string{
			FieldDate, FieldTrackingID, FieldCourier, FieldStatus,
			FieldCODAmount, FieldCODCollected,
			FieldDeclaredWeight, FieldChargedWeight, FieldShippingFee,
		}
	case record.SourceCommerce:
		return []string{
			FieldDate, FieldOrderID, FieldCustomerEmail, FieldStatus,
			FieldProductName, FieldQuantity, FieldTotal, FieldDiscount, FieldPaymentMethod,
		}
	}
	return nil
}

// RequiredFields lists the fields whose columns must be present in a mapping
// before any row is written. Everything else is optional and defaults.
func RequiredFields(source record.Source) []string {
	switch source {
	case record.SourceAds:
		return []string{FieldDate, FieldCampaign, FieldSpend}
	case record.SourceShipping:
		return []string{FieldDate, FieldTrackingID, FieldStatus}
	case record.SourceCommerce:
		return []string{FieldDate, FieldOrderID, FieldTotal}
	}
	return nil
}

// TemplateSample returns one example row, aligned with Fields(source).
func TemplateSample(source record.Source) []string {
	switch source {
	case record.SourceAds:
		return []string{"2024-01-15", "Summer Sale", "Meta", "12500", "340", "150.75", "21", "890.50"}
	case record.SourceShipping:
		return []string{"2024-01-15", "JX123456789", "JNE", "Delivered", "250000", "250000", "1.2", "2.0", "18000"}
	case record.SourceCommerce:
		return []string{"2024-01-15", "INV-0001", "buyer@example.com", "Completed", "Tumbler 600ml", "2", "150000", "15000", "COD"}
	}
	return nil
}

// DefaultMapping maps every canonical field to itself. Used when a file
// already carries canonical headers and the caller sends no mapping.
func DefaultMapping(source record.Source) map[string]string {
	fields := Fields(source)
	mapping := make(map[string]string, len(fields))
	for _, field := range fields {
		mapping[field] = field
	}
	return mapping
}
