package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/insightdeck/insightdeck/internal/config"
	"github.com/insightdeck/insightdeck/internal/ingest"
	"github.com/insightdeck/insightdeck/internal/observability/metrics"
	"github.com/insightdeck/insightdeck/internal/record"
	"github.com/insightdeck/insightdeck/internal/upload/domain"
	"github.com/insightdeck/insightdeck/pkg/db/option"
	"github.com/insightdeck/insightdeck/pkg/db/pagination"
	"github.com/insightdeck/insightdeck/pkg/repository"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultIngestTimeout = 5 * time.Minute

type Params struct {
	fx.In

	Log       *zap.Logger
	Cfg       config.Config
	DB        *gorm.DB
	Node      *snowflake.Node
	Metrics   *metrics.IngestMetrics `optional:"true"`
	Uploads   repository.Repository[domain.Upload]
	Ads       repository.Repository[record.AdRecord]
	Shipments repository.Repository[record.ShipmentRecord]
	Orders    repository.Repository[record.OrderRecord]
}

type service struct {
	log       *zap.Logger
	db        *gorm.DB
	node      *snowflake.Node
	metrics   *metrics.IngestMetrics
	batchSize int
	uploads   repository.Repository[domain.Upload]
	ads       repository.Repository[record.AdRecord]
	shipments repository.Repository[record.ShipmentRecord]
	orders    repository.Repository[record.OrderRecord]
}

func New(p Params) domain.Service {
	batchSize := p.Cfg.UploadBatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	return &service{
		log:       p.Log.Named("upload.service"),
		db:        p.DB,
		node:      p.Node,
		metrics:   p.Metrics,
		batchSize: batchSize,
		uploads:   p.Uploads,
		ads:       p.Ads,
		shipments: p.Shipments,
		orders:    p.Orders,
	}
}

func (s *service) PreviewHeader(ctx context.Context, source record.Source, r io.Reader) (*domain.HeaderPreview, error) {
	if !source.Valid() {
		return nil, domain.ErrInvalidSource
	}

	headers, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	suggested := suggestMapping(source, headers)
	var missing []string
	for _, field := range ingest.RequiredFields(source) {
		if _, ok := suggested[field]; !ok {
			missing = append(missing, field)
		}
	}

	return &domain.HeaderPreview{
		Headers:          headers,
		SuggestedMapping: suggested,
		MissingRequired:  missing,
	}, nil
}

func (s *service) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestSummary, error) {
	if !req.Source.Valid() {
		return nil, domain.ErrInvalidSource
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultIngestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reader := csv.NewReader(req.Reader)
	reader.FieldsPerRecord = -1

	headers, err := readHeaderFrom(reader)
	if err != nil {
		return nil, err
	}

	mapping := req.Mapping
	if len(mapping) == 0 {
		mapping = suggestMapping(req.Source, headers)
	}
	if err := validateMapping(req.Source, mapping, headers); err != nil {
		return nil, err
	}

	upload := &domain.Upload{
		ID:            s.node.Generate(),
		OrgID:         req.OrgID,
		UserID:        req.UserID,
		Reference:     ulid.Make().String(),
		Source:        req.Source,
		FileName:      req.FileName,
		Status:        domain.StatusProcessing,
		ColumnMapping: mappingJSON(mapping),
	}
	if err := s.uploads.Create(ctx, upload); err != nil {
		return nil, err
	}

	sink := s.sinkFor(req.Source, upload)
	now := time.Now().UTC()

	var (
		totalRows     int
		savedRows     int
		failedRows    int
		malformedRows int
		failedBatches int
		stopReason    string
	)

	flush := func() {
		pending := sink.pending()
		if pending == 0 {
			return
		}
		if err := sink.flush(ctx); err != nil {
			failedRows += pending
			failedBatches++
			s.metrics.AddRows(string(req.Source), "failed", pending)
			s.metrics.IncBatch(string(req.Source), "failed")
			s.log.Warn("batch write failed",
				zap.String("upload_id", upload.ID.String()),
				zap.Int("rows", pending),
				zap.Error(err),
			)
			return
		}
		savedRows += pending
		s.metrics.AddRows(string(req.Source), "saved", pending)
		s.metrics.IncBatch(string(req.Source), "saved")
	}

readLoop:
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// unreadable line, count it and move on
			totalRows++
			failedRows++
			malformedRows++
			continue
		}

		totalRows++
		raw := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(cells) {
				raw[header] = cells[i]
			}
		}

		issues := sink.add(raw, now)
		if issues.Any() {
			malformedRows++
		}

		if sink.pending() >= s.batchSize {
			flush()
			if ctx.Err() != nil {
				stopReason = "timeout"
				break readLoop
			}
		}
	}
	if stopReason == "" {
		flush()
		if ctx.Err() != nil {
			stopReason = "timeout"
		}
	}

	status := domain.StatusComplete
	switch {
	case savedRows == 0 && totalRows > 0:
		status = domain.StatusFailed
	case failedRows > 0 || stopReason != "":
		status = domain.StatusPartial
	}

	warning := ""
	if malformedRows > 0 {
		warning = fmt.Sprintf("%d rows had formatting issues", malformedRows)
	}
	if stopReason == "timeout" {
		warning = strings.TrimSpace(warning + "; upload stopped before reading the whole file")
		warning = strings.TrimPrefix(warning, "; ")
	}

	update := map[string]any{
		"status":         status,
		"total_rows":     totalRows,
		"saved_rows":     savedRows,
		"failed_rows":    failedRows,
		"malformed_rows": malformedRows,
		"failed_batches": failedBatches,
		"error":          stopReason,
	}
	// best effort, the records are already committed
	if err := s.uploads.Update(context.WithoutCancel(ctx), upload.ID.String(), update); err != nil {
		s.log.Error("upload status update failed",
			zap.String("upload_id", upload.ID.String()),
			zap.Error(err),
		)
	}
	s.metrics.IncUpload(string(req.Source), string(status))

	s.log.Info("upload ingested",
		zap.String("upload_id", upload.ID.String()),
		zap.String("source", string(req.Source)),
		zap.String("status", string(status)),
		zap.Int("total_rows", totalRows),
		zap.Int("saved_rows", savedRows),
		zap.Int("failed_rows", failedRows),
	)

	return &domain.IngestSummary{
		UploadID:      upload.ID,
		Reference:     upload.Reference,
		Status:        status,
		TotalRows:     totalRows,
		SavedRows:     savedRows,
		FailedRows:    failedRows,
		MalformedRows: malformedRows,
		FailedBatches: failedBatches,
		Warning:       warning,
	}, nil
}

// List pages through an organization's uploads newest first, using the
// time-ordered ids as cursor.
func (s *service) List(ctx context.Context, orgID snowflake.ID, p pagination.Pagination) ([]*domain.Upload, *pagination.PageInfo, error) {
	size := p.PageSize
	if size <= 0 {
		size = 50
	}
	if size > 250 {
		size = 250
	}

	opts := []option.QueryOption{
		option.WithOrder("id DESC"),
		option.WithLimit(size + 1),
	}
	if p.PageToken != "" {
		cursor, err := pagination.DecodeCursor(p.PageToken)
		if err != nil {
			return nil, nil, domain.ErrInvalidPageToken
		}
		opts = append(opts, option.WithIDBefore(cursor.ID))
	}

	rows, err := s.uploads.Find(ctx, &domain.Upload{OrgID: orgID}, opts...)
	if err != nil {
		return nil, nil, err
	}

	info := pagination.BuildCursorPageInfo(rows, size, func(u *domain.Upload) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: u.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})
	if len(rows) > size {
		rows = rows[:size]
	}
	return rows, info, nil
}

func (s *service) Get(ctx context.Context, orgID, uploadID snowflake.ID) (*domain.Upload, error) {
	upload, err := s.uploads.FindOne(ctx, &domain.Upload{ID: uploadID, OrgID: orgID})
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, domain.ErrNotFound
	}
	return upload, nil
}

// Delete removes an upload and every record it produced in one transaction.
func (s *service) Delete(ctx context.Context, orgID, uploadID snowflake.ID) error {
	upload, err := s.Get(ctx, orgID, uploadID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deleted int64
		var err error
		switch upload.Source {
		case record.SourceAds:
			deleted, err = s.ads.WithTrx(tx).DeleteWhere(ctx, &record.AdRecord{UploadID: upload.ID})
		case record.SourceShipping:
			deleted, err = s.shipments.WithTrx(tx).DeleteWhere(ctx, &record.ShipmentRecord{UploadID: upload.ID})
		case record.SourceCommerce:
			deleted, err = s.orders.WithTrx(tx).DeleteWhere(ctx, &record.OrderRecord{UploadID: upload.ID})
		default:
			return domain.ErrInvalidSource
		}
		if err != nil {
			return err
		}

		if err := s.uploads.WithTrx(tx).Delete(ctx, upload.ID.String()); err != nil {
			return err
		}

		s.log.Info("upload deleted",
			zap.String("upload_id", upload.ID.String()),
			zap.Int64("records_deleted", deleted),
		)
		return nil
	})
}

// rowSink hides the per-source record type from the ingest loop.
type rowSink interface {
	add(raw map[string]string, now time.Time) ingest.RowIssues
	pending() int
	flush(ctx context.Context) error
}

func (s *service) sinkFor(source record.Source, upload *domain.Upload) rowSink {
	mapping := jsonMapping(upload.ColumnMapping)
	switch source {
	case record.SourceAds:
		return &sink[record.AdRecord]{
			repo: s.ads,
			normalize: func(raw map[string]string, now time.Time) (record.AdRecord, ingest.RowIssues) {
				r, issues := ingest.NormalizeAd(raw, mapping, now)
				r.ID = s.node.Generate()
				r.OrgID = upload.OrgID
				r.UploadID = upload.ID
				return r, issues
			},
		}
	case record.SourceShipping:
		return &sink[record.ShipmentRecord]{
			repo: s.shipments,
			normalize: func(raw map[string]string, now time.Time) (record.ShipmentRecord, ingest.RowIssues) {
				r, issues := ingest.NormalizeShipment(raw, mapping, now)
				r.ID = s.node.Generate()
				r.OrgID = upload.OrgID
				r.UploadID = upload.ID
				return r, issues
			},
		}
	default:
		return &sink[record.OrderRecord]{
			repo: s.orders,
			normalize: func(raw map[string]string, now time.Time) (record.OrderRecord, ingest.RowIssues) {
				r, issues := ingest.NormalizeOrder(raw, mapping, now)
				r.ID = s.node.Generate()
				r.OrgID = upload.OrgID
				r.UploadID = upload.ID
				return r, issues
			},
		}
	}
}

type sink[T any] struct {
	repo      repository.Repository[T]
	normalize func(raw map[string]string, now time.Time) (T, ingest.RowIssues)
	buf       []*T
}

func (s *sink[T]) add(raw map[string]string, now time.Time) ingest.RowIssues {
	r, issues := s.normalize(raw, now)
	s.buf = append(s.buf, &r)
	return issues
}

func (s *sink[T]) pending() int { return len(s.buf) }

func (s *sink[T]) flush(ctx context.Context) error {
	err := s.repo.BatchCreate(ctx, s.buf)
	s.buf = s.buf[:0]
	return err
}

func readHeader(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	return readHeaderFrom(reader)
}

func readHeaderFrom(reader *csv.Reader) ([]string, error) {
	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.ErrEmptyFile
	}
	if err != nil {
		return nil, domain.ErrMalformedHeader
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	if len(headers) == 0 {
		return nil, domain.ErrMalformedHeader
	}
	return headers, nil
}

// validateMapping fails the upload before any write when a required column
// is absent, so "can't start" never looks like "partially succeeded".
func validateMapping(source record.Source, mapping map[string]string, headers []string) error {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}

	var missing []string
	for _, field := range ingest.RequiredFields(source) {
		header, ok := mapping[field]
		if !ok {
			missing = append(missing, field)
			continue
		}
		if _, found := present[header]; !found {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

func suggestMapping(source record.Source, headers []string) map[string]string {
	normalized := make(map[string]string, len(headers))
	for _, h := range headers {
		normalized[normalizeHeader(h)] = h
	}

	mapping := make(map[string]string)
	for _, field := range ingest.Fields(source) {
		if header, ok := normalized[normalizeHeader(field)]; ok {
			mapping[field] = header
		}
	}
	return mapping
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

func mappingJSON(mapping map[string]string) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(mapping))
	for k, v := range mapping {
		out[k] = v
	}
	return out
}

func jsonMapping(m datatypes.JSONMap) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
