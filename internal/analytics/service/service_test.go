package service

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/insightdeck/insightdeck/internal/analytics/engine"
	"github.com/insightdeck/insightdeck/internal/record"
	"github.com/insightdeck/insightdeck/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&record.AdRecord{},
		&record.ShipmentRecord{},
		&record.OrderRecord{},
	))

	svc := New(Params{
		Log:       zap.NewNop(),
		Ads:       repository.ProvideStore[record.AdRecord](db),
		Shipments: repository.ProvideStore[record.ShipmentRecord](db),
		Orders:    repository.ProvideStore[record.OrderRecord](db),
	})
	return svc, db
}

func TestCommerceDashboardFiltersByOrgAndDate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&[]record.OrderRecord{
		{ID: 1, OrgID: 1, UploadID: 1, Date: "2024-01-01", OrderID: "A", HasOrderID: true, Total: 100},
		{ID: 2, OrgID: 1, UploadID: 1, Date: "2024-01-05", OrderID: "B", HasOrderID: true, Total: 50},
		{ID: 3, OrgID: 2, UploadID: 2, Date: "2024-01-01", OrderID: "C", HasOrderID: true, Total: 999},
	}).Error)

	dash, err := svc.CommerceDashboard(ctx, 1, engine.FilterSpec{
		StartDate: "2024-01-01",
		EndDate:   "2024-01-03",
	})
	require.NoError(t, err)

	assert.True(t, dash.HasData)
	assert.Equal(t, 1, dash.Metrics.TotalOrders)
	assert.Equal(t, float64(100), dash.Metrics.TotalRevenue)
}

func TestDashboardDistinguishesNoDataFromNoMatch(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	empty, err := svc.CommerceDashboard(ctx, 1, engine.FilterSpec{})
	require.NoError(t, err)
	assert.False(t, empty.HasData)
	assert.Zero(t, empty.Metrics.TotalOrders)

	require.NoError(t, db.Create(&record.OrderRecord{
		ID: 1, OrgID: 1, UploadID: 1, Date: "2024-01-01", OrderID: "A", HasOrderID: true, Total: 100,
	}).Error)

	noMatch, err := svc.CommerceDashboard(ctx, 1, engine.FilterSpec{StartDate: "2025-01-01"})
	require.NoError(t, err)
	assert.True(t, noMatch.HasData)
	assert.Zero(t, noMatch.Metrics.TotalOrders)
}

func TestShippingDashboardEqualityFilter(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&[]record.ShipmentRecord{
		{ID: 1, OrgID: 1, UploadID: 1, Date: "2024-01-01", TrackingID: "A", HasTrackingID: true, Courier: "JNE", Status: "Delivered"},
		{ID: 2, OrgID: 1, UploadID: 1, Date: "2024-01-01", TrackingID: "B", HasTrackingID: true, Courier: "SiCepat", Status: "Failed"},
	}).Error)

	dash, err := svc.ShippingDashboard(ctx, 1, engine.FilterSpec{
		Equals: map[string]string{"courier": "JNE"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, dash.Metrics.TotalShipments)
	assert.InDelta(t, 1.0, dash.Metrics.DeliveryRate, 1e-9)
}

func TestExportCSV(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&[]record.AdRecord{
		{ID: 1, OrgID: 1, UploadID: 1, Date: "2024-01-02", Campaign: "B", Platform: "Google", Spend: 30},
		{ID: 2, OrgID: 1, UploadID: 1, Date: "2024-01-01", Campaign: "A", Platform: "Meta", Spend: 10},
	}).Error)

	out, err := svc.ExportCSV(ctx, 1, record.SourceAds, engine.FilterSpec{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "date,campaign,platform"))
	// rows come back in date order
	assert.Contains(t, lines[1], "2024-01-01")
	assert.Contains(t, lines[2], "2024-01-02")

	_, err = svc.ExportCSV(ctx, 1, record.Source("bogus"), engine.FilterSpec{})
	assert.ErrorIs(t, err, ErrInvalidSource)
}
