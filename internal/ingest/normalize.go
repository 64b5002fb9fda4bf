package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/insightdeck/insightdeck/internal/record"
)

// dateLayouts are tried in order when parsing a date cell.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// emptyTokens are the cell values treated as the canonical empty string.
var emptyTokens = map[string]struct{}{
	"":     {},
	"n/a":  {},
	"null": {},
	"-":    {},
}

// RowIssues reports what the normalizer had to repair on one row.
type RowIssues struct {
	BadFields int
	BadDate   bool
}

func (i RowIssues) Any() bool { return i.BadFields > 0 || i.BadDate }

// CleanString collapses the empty-value equivalence class to "".
func CleanString(v string) string {
	v = strings.TrimSpace(v)
	if _, empty := emptyTokens[strings.ToLower(v)]; empty {
		return ""
	}
	return v
}

// ParseAmount parses a numeric cell, stripping thousands separators, currency
// symbols and percent signs. Unparseable input yields 0 and ok=false.
func ParseAmount(v string) (float64, bool) {
	v = CleanString(v)
	if v == "" {
		return 0, false
	}

	var b strings.Builder
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',', r == '%', r == '$', r == ' ':
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			// currency codes like "Rp" or "IDR" prefix the digits
		default:
		}
	}

	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseDate parses a date cell into canonical YYYY-MM-DD. On failure it
// returns now's date with fallback=true.
func ParseDate(v string, now time.Time) (day string, fallback bool) {
	v = CleanString(v)
	if v != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.Format("2006-01-02"), false
			}
		}
	}
	return now.Format("2006-01-02"), true
}

// mappedCell resolves a canonical field through the column mapping.
func mappedCell(raw map[string]string, mapping map[string]string, field string) (string, bool) {
	header, ok := mapping[field]
	if !ok {
		return "", false
	}
	v, ok := raw[header]
	return v, ok
}

func stringField(raw, mapping map[string]string, field string) string {
	v, _ := mappedCell(raw, mapping, field)
	return CleanString(v)
}

func amountField(raw, mapping map[string]string, field string, issues *RowIssues) float64 {
	v, present := mappedCell(raw, mapping, field)
	if !present || CleanString(v) == "" {
		return 0
	}
	n, ok := ParseAmount(v)
	if !ok {
		issues.BadFields++
	}
	return n
}

func dateField(raw, mapping map[string]string, now time.Time, issues *RowIssues) (string, bool) {
	v, _ := mappedCell(raw, mapping, FieldDate)
	day, fallback := ParseDate(v, now)
	if fallback {
		issues.BadDate = true
	}
	return day, fallback
}

// NormalizeAd builds one typed advertising record from a raw row.
func NormalizeAd(raw, mapping map[string]string, now time.Time) (record.AdRecord, RowIssues) {
	var issues RowIssues
	day, fallback := dateField(raw, mapping, now, &issues)

	return record.AdRecord{
		Date:         day,
		DateFallback: fallback,
		Campaign:     stringField(raw, mapping, FieldCampaign),
		Platform:     stringField(raw, mapping, FieldPlatform),
		Impressions:  amountField(raw, mapping, FieldImpressions, &issues),
		Clicks:       amountField(raw, mapping, FieldClicks, &issues),
		Spend:        amountField(raw, mapping, FieldSpend, &issues),
		Conversions:  amountField(raw, mapping, FieldConversions, &issues),
		Revenue:      amountField(raw, mapping, FieldRevenue, &issues),
	}, issues
}

// NormalizeShipment builds one typed shipping record from a raw row. An empty
// tracking id stays empty so the aggregation gate can detect it.
func NormalizeShipment(raw, mapping map[string]string, now time.Time) (record.ShipmentRecord, RowIssues) {
	var issues RowIssues
	day, fallback := dateField(raw, mapping, now, &issues)
	trackingID := stringField(raw, mapping, FieldTrackingID)

	return record.ShipmentRecord{
		Date:               day,
		DateFallback:       fallback,
		TrackingID:         trackingID,
		HasTrackingID:      trackingID != "",
		Courier:            stringField(raw, mapping, FieldCourier),
		Status:             stringField(raw, mapping, FieldStatus),
		CODAmount:          amountField(raw, mapping, FieldCODAmount, &issues),
		CODCollectedAmount: amountField(raw, mapping, FieldCODCollected, &issues),
		DeclaredWeight:     amountField(raw, mapping, FieldDeclaredWeight, &issues),
		ChargedWeight:      amountField(raw, mapping, FieldChargedWeight, &issues),
		ShippingFee:        amountField(raw, mapping, FieldShippingFee, &issues),
	}, issues
}

// NormalizeOrder builds one typed commerce record from a raw row.
func NormalizeOrder(raw, mapping map[string]string, now time.Time) (record.OrderRecord, RowIssues) {
	var issues RowIssues
	day, fallback := dateField(raw, mapping, now, &issues)
	orderID := stringField(raw, mapping, FieldOrderID)

	return record.OrderRecord{
		Date:          day,
		DateFallback:  fallback,
		OrderID:       orderID,
		HasOrderID:    orderID != "",
		CustomerEmail: strings.ToLower(stringField(raw, mapping, FieldCustomerEmail)),
		Status:        stringField(raw, mapping, FieldStatus),
		ProductName:   stringField(raw, mapping, FieldProductName),
		Quantity:      amountField(raw, mapping, FieldQuantity, &issues),
		Total:         amountField(raw, mapping, FieldTotal, &issues),
		Discount:      amountField(raw, mapping, FieldDiscount, &issues),
		PaymentMethod: stringField(raw, mapping, FieldPaymentMethod),
	}, issues
}
