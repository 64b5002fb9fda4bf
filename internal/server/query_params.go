package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/insightdeck/insightdeck/internal/analytics/engine"
	"github.com/insightdeck/insightdeck/internal/ingest"
	"github.com/insightdeck/insightdeck/internal/record"
)

var errBadDate = errors.New("invalid_date")

// dimensionFields lists the query parameters accepted as equality filters
// per source.
var dimensionFields = map[record.Source][]string{
	record.SourceAds:      {ingest.FieldCampaign, ingest.FieldPlatform},
	record.SourceShipping: {ingest.FieldCourier, ingest.FieldStatus},
	record.SourceCommerce: {ingest.FieldStatus, ingest.FieldPaymentMethod, ingest.FieldProductName},
}

// filterSpecFromQuery builds a FilterSpec from ?start, ?end and the source's
// dimension parameters.
func filterSpecFromQuery(c *gin.Context, source record.Source) (engine.FilterSpec, error) {
	spec := engine.FilterSpec{}

	start, err := dayParam(c, "start")
	if err != nil {
		return spec, err
	}
	end, err := dayParam(c, "end")
	if err != nil {
		return spec, err
	}
	spec.StartDate = start
	spec.EndDate = end
	if start != "" && end != "" && start > end {
		return spec, fmt.Errorf("%w: start after end", errBadDate)
	}

	for _, field := range dimensionFields[source] {
		if v := strings.TrimSpace(c.Query(field)); v != "" {
			if spec.Equals == nil {
				spec.Equals = make(map[string]string)
			}
			spec.Equals[field] = v
		}
	}
	return spec, nil
}

func dayParam(c *gin.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return "", fmt.Errorf("%w: %s", errBadDate, name)
	}
	return v, nil
}

func sourceParam(c *gin.Context) (record.Source, bool) {
	source := record.Source(strings.ToLower(strings.TrimSpace(c.Param("source"))))
	return source, source.Valid()
}
