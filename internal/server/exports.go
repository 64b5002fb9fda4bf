package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	analyticsservice "github.com/insightdeck/insightdeck/internal/analytics/service"
	"github.com/insightdeck/insightdeck/internal/orgcontext"
)

// exportRecords streams the organization's filtered records of one source as
// a CSV download.
func (s *Server) exportRecords(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	source, ok := sourceParam(c)
	if !ok {
		c.Error(analyticsservice.ErrInvalidSource)
		return
	}

	spec, err := filterSpecFromQuery(c, source)
	if err != nil {
		c.Error(err)
		return
	}

	out, err := s.analytics.ExportCSV(ctx, orgID, source, spec)
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+string(source)+`_export.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(out))
}
