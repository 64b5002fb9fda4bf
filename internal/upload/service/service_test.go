package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/insightdeck/insightdeck/internal/config"
	"github.com/insightdeck/insightdeck/internal/record"
	"github.com/insightdeck/insightdeck/internal/upload/domain"
	"github.com/insightdeck/insightdeck/pkg/db/pagination"
	"github.com/insightdeck/insightdeck/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, batchSize int) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Upload{},
		&record.AdRecord{},
		&record.ShipmentRecord{},
		&record.OrderRecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		Log:       zap.NewNop(),
		Cfg:       config.Config{UploadBatchSize: batchSize},
		DB:        db,
		Node:      node,
		Uploads:   repository.ProvideStore[domain.Upload](db),
		Ads:       repository.ProvideStore[record.AdRecord](db),
		Shipments: repository.ProvideStore[record.ShipmentRecord](db),
		Orders:    repository.ProvideStore[record.OrderRecord](db),
	})
	return svc, db
}

const commerceCSV = `date,order_id,customer_email,status,product_name,quantity,total,discount,payment_method
2024-01-01,INV-1,a@x.com,Delivered,Tumbler,1,100,0,COD
2024-01-01,INV-2,b@x.com,Pending,Mug,2,50,5,Transfer
2024-01-03,INV-3,a@x.com,Delivered,Tumbler,1,120,0,COD
`

func TestIngestComplete(t *testing.T) {
	svc, db := newTestService(t, 2)

	summary, err := svc.Ingest(context.Background(), domain.IngestRequest{
		OrgID:    1,
		Source:   record.SourceCommerce,
		FileName: "orders.csv",
		Reader:   strings.NewReader(commerceCSV),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, summary.Status)
	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, 3, summary.SavedRows)
	assert.Zero(t, summary.FailedRows)
	assert.NotEmpty(t, summary.Reference)

	var count int64
	require.NoError(t, db.Model(&record.OrderRecord{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	var stored domain.Upload
	require.NoError(t, db.First(&stored, "id = ?", summary.UploadID).Error)
	assert.Equal(t, domain.StatusComplete, stored.Status)
	assert.Equal(t, 3, stored.SavedRows)
}

func TestIngestMissingRequiredColumnIsFatal(t *testing.T) {
	svc, db := newTestService(t, 2)

	// no order_id column anywhere
	csvData := "date,total\n2024-01-01,100\n"
	_, err := svc.Ingest(context.Background(), domain.IngestRequest{
		OrgID:  1,
		Source: record.SourceCommerce,
		Reader: strings.NewReader(csvData),
	})
	require.ErrorIs(t, err, domain.ErrMissingColumns)

	// can't-start means nothing was written, not even upload metadata
	var uploads, records int64
	require.NoError(t, db.Model(&domain.Upload{}).Count(&uploads).Error)
	require.NoError(t, db.Model(&record.OrderRecord{}).Count(&records).Error)
	assert.Zero(t, uploads)
	assert.Zero(t, records)
}

func TestIngestMalformedRowsAreNotFatal(t *testing.T) {
	svc, db := newTestService(t, 10)

	csvData := `date,order_id,total
2024-01-01,INV-1,"1,500.00"
bad-date,INV-2,not-a-number
`
	summary, err := svc.Ingest(context.Background(), domain.IngestRequest{
		OrgID:  1,
		Source: record.SourceCommerce,
		Reader: strings.NewReader(csvData),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, summary.Status)
	assert.Equal(t, 2, summary.SavedRows)
	assert.Equal(t, 1, summary.MalformedRows)
	assert.Contains(t, summary.Warning, "formatting issues")

	var saved []record.OrderRecord
	require.NoError(t, db.Order("order_id").Find(&saved).Error)
	require.Len(t, saved, 2)
	assert.Equal(t, float64(1500), saved[0].Total)
	assert.True(t, saved[1].DateFallback)
	assert.Zero(t, saved[1].Total)
}

func TestIngestCustomMapping(t *testing.T) {
	svc, db := newTestService(t, 10)

	csvData := "Tanggal,No Invoice,Nilai\n2024-01-01,INV-9,250\n"
	summary, err := svc.Ingest(context.Background(), domain.IngestRequest{
		OrgID:  1,
		Source: record.SourceCommerce,
		Mapping: map[string]string{
			"date":     "Tanggal",
			"order_id": "No Invoice",
			"total":    "Nilai",
		},
		Reader: strings.NewReader(csvData),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SavedRows)

	var stored record.OrderRecord
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "INV-9", stored.OrderID)
	assert.Equal(t, float64(250), stored.Total)
}

func TestIngestEmptyFile(t *testing.T) {
	svc, _ := newTestService(t, 10)

	_, err := svc.Ingest(context.Background(), domain.IngestRequest{
		OrgID:  1,
		Source: record.SourceCommerce,
		Reader: strings.NewReader(""),
	})
	assert.ErrorIs(t, err, domain.ErrEmptyFile)
}

func TestDeleteCascadesToRecords(t *testing.T) {
	svc, db := newTestService(t, 2)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, domain.IngestRequest{
		OrgID:  1,
		Source: record.SourceCommerce,
		Reader: strings.NewReader(commerceCSV),
	})
	require.NoError(t, err)

	second, err := svc.Ingest(ctx, domain.IngestRequest{
		OrgID:  1,
		Source: record.SourceCommerce,
		Reader: strings.NewReader(commerceCSV),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, first.UploadID))

	_, err = svc.Get(ctx, 1, first.UploadID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the other upload's records are untouched
	var remaining []record.OrderRecord
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 3)
	for _, r := range remaining {
		assert.Equal(t, second.UploadID, r.UploadID)
	}
}

func TestDeleteScopedToOrganization(t *testing.T) {
	svc, _ := newTestService(t, 2)
	ctx := context.Background()

	summary, err := svc.Ingest(ctx, domain.IngestRequest{
		OrgID:  1,
		Source: record.SourceCommerce,
		Reader: strings.NewReader(commerceCSV),
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, 2, summary.UploadID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListNewestFirstWithPaging(t *testing.T) {
	svc, _ := newTestService(t, 2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Ingest(ctx, domain.IngestRequest{
			OrgID:  1,
			Source: record.SourceCommerce,
			Reader: strings.NewReader(commerceCSV),
		})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	first, info, err := svc.List(ctx, 1, pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, first[0].ID > first[1].ID)
	require.NotNil(t, info)
	assert.True(t, info.HasMore)
	assert.NotEmpty(t, info.NextPageToken)

	rest, info, err := svc.List(ctx, 1, pagination.Pagination{PageSize: 2, PageToken: info.NextPageToken})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.False(t, info.HasMore)
	assert.True(t, rest[0].ID < first[1].ID)

	_, _, err = svc.List(ctx, 1, pagination.Pagination{PageToken: "not-base64!"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestPreviewHeader(t *testing.T) {
	svc, _ := newTestService(t, 2)

	preview, err := svc.PreviewHeader(context.Background(), record.SourceCommerce,
		strings.NewReader("Date,Order ID,customer_email\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Order ID", "customer_email"}, preview.Headers)
	assert.Equal(t, "Date", preview.SuggestedMapping["date"])
	assert.Equal(t, "Order ID", preview.SuggestedMapping["order_id"])
	assert.Contains(t, preview.MissingRequired, "total")
}
