// Package exportcsv serializes record collections back to delimited text.
package exportcsv

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/insightdeck/insightdeck/internal/ingest"
	"github.com/insightdeck/insightdeck/internal/record"
)

// Row is one exportable row. Keys carries the column order so the export is
// deterministic; map iteration alone would shuffle columns between runs.
type Row struct {
	Keys   []string
	Values map[string]any
}

// NewRow builds a row preserving the given key order.
func NewRow(pairs ...any) Row {
	row := Row{Values: make(map[string]any, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		key := fmt.Sprint(pairs[i])
		row.Keys = append(row.Keys, key)
		row.Values[key] = pairs[i+1]
	}
	return row
}

// ToDelimitedText renders rows as RFC 4180 CSV. The header is the union of
// all row keys in first-seen order; rows missing a column emit an empty cell.
func ToDelimitedText(rows []Row) (string, error) {
	var header []string
	seen := make(map[string]struct{})
	for _, row := range rows {
		for _, key := range row.Keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			header = append(header, key)
		}
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return "", err
		}
	}
	for _, row := range rows {
		cells := make([]string, len(header))
		for i, key := range header {
			if v, ok := row.Values[key]; ok {
				cells[i] = formatCell(v)
			}
		}
		if err := w.Write(cells); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Template renders the downloadable upload template for a source: the
// canonical header row plus one sample row.
func Template(source record.Source) (string, error) {
	fields := ingest.Fields(source)
	if fields == nil {
		return "", fmt.Errorf("unknown_source")
	}
	sample := ingest.TemplateSample(source)

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(fields); err != nil {
		return "", err
	}
	if err := w.Write(sample); err != nil {
		return "", err
	}
	w.Flush()
	return b.String(), w.Error()
}

// AdRows converts ad records to export rows, omitting storage identity.
func AdRows(records []record.AdRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, NewRow(
			ingest.FieldDate, r.Date,
			ingest.FieldCampaign, r.Campaign,
			ingest.FieldPlatform, r.Platform,
			ingest.FieldImpressions, r.Impressions,
			ingest.FieldClicks, r.Clicks,
			ingest.FieldSpend, r.Spend,
			ingest.FieldConversions, r.Conversions,
			ingest.FieldRevenue, r.Revenue,
		))
	}
	return rows
}

// ShipmentRows converts shipment records to export rows.
func ShipmentRows(records []record.ShipmentRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, NewRow(
			ingest.FieldDate, r.Date,
			ingest.FieldTrackingID, r.TrackingID,
			ingest.FieldCourier, r.Courier,
			ingest.FieldStatus, r.Status,
			ingest.FieldCODAmount, r.CODAmount,
			ingest.FieldCODCollected, r.CODCollectedAmount,
			ingest.FieldDeclaredWeight, r.DeclaredWeight,
			ingest.FieldChargedWeight, r.ChargedWeight,
			ingest.FieldShippingFee, r.ShippingFee,
		))
	}
	return rows
}

// OrderRows converts order records to export rows.
func OrderRows(records []record.OrderRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, NewRow(
			ingest.FieldDate, r.Date,
			ingest.FieldOrderID, r.OrderID,
			ingest.FieldCustomerEmail, r.CustomerEmail,
			ingest.FieldStatus, r.Status,
			ingest.FieldProductName, r.ProductName,
			ingest.FieldQuantity, r.Quantity,
			ingest.FieldTotal, r.Total,
			ingest.FieldDiscount, r.Discount,
			ingest.FieldPaymentMethod, r.PaymentMethod,
		))
	}
	return rows
}
