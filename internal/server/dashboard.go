package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/insightdeck/insightdeck/internal/orgcontext"
	"github.com/insightdeck/insightdeck/internal/record"
)

func (s *Server) adsDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	spec, err := filterSpecFromQuery(c, record.SourceAds)
	if err != nil {
		c.Error(err)
		return
	}

	dash, err := s.analytics.AdsDashboard(ctx, orgID, spec)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (s *Server) shippingDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	spec, err := filterSpecFromQuery(c, record.SourceShipping)
	if err != nil {
		c.Error(err)
		return
	}

	dash, err := s.analytics.ShippingDashboard(ctx, orgID, spec)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (s *Server) commerceDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	spec, err := filterSpecFromQuery(c, record.SourceCommerce)
	if err != nil {
		c.Error(err)
		return
	}

	dash, err := s.analytics.CommerceDashboard(ctx, orgID, spec)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
