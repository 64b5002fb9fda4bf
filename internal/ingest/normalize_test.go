package ingest

import (
	"testing"
	"time"

	"github.com/insightdeck/insightdeck/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 2, 10, 8, 30, 0, 0, time.UTC)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "", CleanString("N/A"))
	assert.Equal(t, "", CleanString("NULL"))
	assert.Equal(t, "", CleanString("null"))
	assert.Equal(t, "", CleanString("  "))
	assert.Equal(t, "", CleanString("-"))
	assert.Equal(t, "JNE", CleanString(" JNE "))
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234.50", 1234.5, true},
		{"$99.90", 99.9, true},
		{"Rp 250,000", 250000, true},
		{"45%", 45, true},
		{"12", 12, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
	}
}

func TestParseDate(t *testing.T) {
	day, fallback := ParseDate("2024-01-15", testNow)
	assert.Equal(t, "2024-01-15", day)
	assert.False(t, fallback)

	day, fallback = ParseDate("2024-01-15T10:04:05Z", testNow)
	assert.Equal(t, "2024-01-15", day)
	assert.False(t, fallback)

	day, fallback = ParseDate("15/01/2024", testNow)
	assert.Equal(t, "2024-01-15", day)
	assert.False(t, fallback)

	day, fallback = ParseDate("not a date", testNow)
	assert.Equal(t, "2024-02-10", day)
	assert.True(t, fallback)

	day, fallback = ParseDate("", testNow)
	assert.Equal(t, "2024-02-10", day)
	assert.True(t, fallback)
}

func TestNormalizeAd(t *testing.T) {
	mapping := map[string]string{
		FieldDate:        "Tanggal",
		FieldCampaign:    "Campaign Name",
		FieldPlatform:    "Platform",
		FieldImpressions: "Impr",
		FieldClicks:      "Clicks",
		FieldSpend:       "Cost",
		FieldRevenue:     "Revenue",
	}
	raw := map[string]string{
		"Tanggal":       "2024-01-15",
		"Campaign Name": "Summer Sale",
		"Platform":      "Meta",
		"Impr":          "12,500",
		"Clicks":        "340",
		"Cost":          "$150.75",
		"Revenue":       "N/A",
	}

	rec, issues := NormalizeAd(raw, mapping, testNow)
	assert.Equal(t, "2024-01-15", rec.Date)
	assert.False(t, rec.DateFallback)
	assert.Equal(t, "Summer Sale", rec.Campaign)
	assert.Equal(t, float64(12500), rec.Impressions)
	assert.Equal(t, 150.75, rec.Spend)
	assert.Zero(t, rec.Revenue)
	assert.Zero(t, rec.Conversions)
	assert.False(t, issues.Any())
}

func TestNormalizeShipmentTrackingGate(t *testing.T) {
	mapping := DefaultMapping(record.SourceShipping)

	rec, _ := NormalizeShipment(map[string]string{
		FieldDate:       "2024-01-15",
		FieldTrackingID: "N/A",
		FieldCourier:    "JNE",
		FieldStatus:     "Delivered",
	}, mapping, testNow)
	assert.Equal(t, "", rec.TrackingID)
	assert.False(t, rec.HasTrackingID)

	rec, _ = NormalizeShipment(map[string]string{
		FieldDate:       "2024-01-15",
		FieldTrackingID: "JX123",
		FieldCourier:    "JNE",
		FieldStatus:     "Delivered",
	}, mapping, testNow)
	assert.Equal(t, "JX123", rec.TrackingID)
	assert.True(t, rec.HasTrackingID)
}

func TestNormalizeOrderMalformedRow(t *testing.T) {
	mapping := DefaultMapping(record.SourceCommerce)
	raw := map[string]string{
		FieldDate:          "soon",
		FieldOrderID:       "INV-1",
		FieldCustomerEmail: "Buyer@Example.COM",
		FieldStatus:        "",
		FieldQuantity:      "two",
		FieldTotal:         "1,500.00",
	}

	rec, issues := NormalizeOrder(raw, mapping, testNow)
	assert.Equal(t, "2024-02-10", rec.Date)
	assert.True(t, rec.DateFallback)
	assert.Equal(t, "buyer@example.com", rec.CustomerEmail)
	assert.Equal(t, "", rec.Status)
	assert.Zero(t, rec.Quantity)
	assert.Equal(t, float64(1500), rec.Total)
	assert.True(t, issues.BadDate)
	assert.Equal(t, 1, issues.BadFields)
}

func TestNormalizeOmittedOptionalFields(t *testing.T) {
	mapping := map[string]string{
		FieldDate:    FieldDate,
		FieldOrderID: FieldOrderID,
		FieldTotal:   FieldTotal,
	}
	raw := map[string]string{
		FieldDate:    "2024-01-15",
		FieldOrderID: "INV-2",
		FieldTotal:   "100",
	}

	rec, issues := NormalizeOrder(raw, mapping, testNow)
	require.False(t, issues.Any())
	assert.Equal(t, float64(100), rec.Total)
	assert.Zero(t, rec.Discount)
	assert.Equal(t, "", rec.ProductName)
	assert.Equal(t, "", rec.PaymentMethod)
}

func TestRequiredFieldsCoverEverySource(t *testing.T) {
	for _, source := range []record.Source{record.SourceAds, record.SourceShipping, record.SourceCommerce} {
		fields := Fields(source)
		require.NotEmpty(t, fields)
		for _, req := range RequiredFields(source) {
			assert.Contains(t, fields, req, "source %s", source)
		}
		assert.Len(t, TemplateSample(source), len(fields), "source %s", source)
	}
}
