package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/insightdeck/insightdeck/internal/exportcsv"
	"github.com/insightdeck/insightdeck/internal/orgcontext"
	uploaddomain "github.com/insightdeck/insightdeck/internal/upload/domain"
	"github.com/insightdeck/insightdeck/pkg/db/pagination"
)

const maxUploadBytes = 50 << 20

func (s *Server) listUploads(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid_pagination"})
		return
	}

	uploads, pageInfo, err := s.uploads.List(ctx, orgID, page)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads, "page_info": pageInfo})
}

func (s *Server) getUpload(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	uploadID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid_upload_id"})
		return
	}

	upload, err := s.uploads.Get(ctx, orgID, uploadID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// ingestUpload accepts a multipart CSV plus an optional column mapping and
// runs the full pipeline synchronously, returning the ingest summary.
func (s *Server) ingestUpload(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)
	userID, _ := orgcontext.UserIDFromContext(ctx)

	source, ok := sourceParam(c)
	if !ok {
		c.Error(uploaddomain.ErrInvalidSource)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "missing_file"})
		return
	}
	defer file.Close()

	var mapping map[string]string
	if raw := strings.TrimSpace(c.PostForm("mapping")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid_mapping"})
			return
		}
	}

	var timeout time.Duration
	if raw := strings.TrimSpace(c.PostForm("timeout")); raw != "" {
		timeout, err = time.ParseDuration(raw)
		if err != nil || timeout < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid_timeout"})
			return
		}
	}

	summary, err := s.uploads.Ingest(ctx, uploaddomain.IngestRequest{
		OrgID:    orgID,
		UserID:   userID,
		Source:   source,
		FileName: header.Filename,
		Mapping:  mapping,
		Reader:   file,
		Timeout:  timeout,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// previewUpload parses only the header row so the caller can confirm the
// column mapping before committing to a full ingest.
func (s *Server) previewUpload(c *gin.Context) {
	source, ok := sourceParam(c)
	if !ok {
		c.Error(uploaddomain.ErrInvalidSource)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "missing_file"})
		return
	}
	defer file.Close()

	preview, err := s.uploads.PreviewHeader(c.Request.Context(), source, file)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (s *Server) deleteUpload(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	uploadID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid_upload_id"})
		return
	}

	if err := s.uploads.Delete(ctx, orgID, uploadID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) uploadTemplate(c *gin.Context) {
	source, ok := sourceParam(c)
	if !ok {
		c.Error(uploaddomain.ErrInvalidSource)
		return
	}

	out, err := exportcsv.Template(source)
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+string(source)+`_template.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(out))
}
