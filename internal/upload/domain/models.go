package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/insightdeck/insightdeck/internal/record"
	"github.com/insightdeck/insightdeck/pkg/db/pagination"
	"gorm.io/datatypes"
)

var (
	ErrNotFound        = errors.New("upload_not_found")
	ErrInvalidSource   = errors.New("invalid_source")
	ErrEmptyFile       = errors.New("empty_file")
	ErrMissingColumns   = errors.New("missing_required_columns")
	ErrMalformedHeader  = errors.New("malformed_header")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)

// Status is the terminal state of an upload.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusPartial    Status = "partial"
	StatusFailed     Status = "failed"
)

// Upload is the metadata row every ingested record points back to. Deleting
// an upload cascades to its records; orphaned records would silently skew
// every later aggregate.
type Upload struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID         snowflake.ID      `json:"org_id" gorm:"index;not null"`
	UserID        snowflake.ID      `json:"user_id" gorm:"index"`
	Reference     string            `json:"reference" gorm:"uniqueIndex;size:26"`
	Source        record.Source     `json:"source" gorm:"size:20;not null"`
	FileName      string            `json:"file_name"`
	Status        Status            `json:"status" gorm:"size:20;index"`
	TotalRows     int               `json:"total_rows"`
	SavedRows     int               `json:"saved_rows"`
	FailedRows    int               `json:"failed_rows"`
	MalformedRows int               `json:"malformed_rows"`
	FailedBatches int               `json:"failed_batches"`
	ColumnMapping datatypes.JSONMap `json:"column_mapping"`
	Error         string            `json:"error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (Upload) TableName() string { return "uploads" }

// IngestRequest carries one CSV file into the pipeline.
type IngestRequest struct {
	OrgID    snowflake.ID
	UserID   snowflake.ID
	Source   record.Source
	FileName string
	// Mapping maps canonical field names to the file's header names.
	// Empty means the file carries canonical headers.
	Mapping map[string]string
	Reader  io.Reader
	// Timeout bounds the whole ingest; zero uses the service default.
	Timeout time.Duration
}

// IngestSummary is what the uploader sees when the pipeline finishes.
type IngestSummary struct {
	UploadID      snowflake.ID `json:"upload_id"`
	Reference     string       `json:"reference"`
	Status        Status       `json:"status"`
	TotalRows     int          `json:"total_rows"`
	SavedRows     int          `json:"saved_rows"`
	FailedRows    int          `json:"failed_rows"`
	MalformedRows int          `json:"malformed_rows"`
	FailedBatches int          `json:"failed_batches"`
	Warning       string       `json:"warning,omitempty"`
}

// HeaderPreview is the parse-header step served before a full ingest, so the
// caller can confirm or adjust the column mapping.
type HeaderPreview struct {
	Headers          []string          `json:"headers"`
	SuggestedMapping map[string]string `json:"suggested_mapping"`
	MissingRequired  []string          `json:"missing_required"`
}

// Service runs the upload pipeline and manages upload lifecycles.
type Service interface {
	PreviewHeader(ctx context.Context, source record.Source, r io.Reader) (*HeaderPreview, error)
	Ingest(ctx context.Context, req IngestRequest) (*IngestSummary, error)
	List(ctx context.Context, orgID snowflake.ID, p pagination.Pagination) ([]*Upload, *pagination.PageInfo, error)
	Get(ctx context.Context, orgID, uploadID snowflake.ID) (*Upload, error)
	Delete(ctx context.Context, orgID, uploadID snowflake.ID) error
}
