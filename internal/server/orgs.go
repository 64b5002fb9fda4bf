package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/insightdeck/insightdeck/internal/orgcontext"
	orgservice "github.com/insightdeck/insightdeck/internal/organization/service"
)

// requireSuperAdmin gates tenant management, which crosses organization
// boundaries and so cannot use the per-org policy check.
func (s *Server) requireSuperAdmin(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := orgcontext.UserIDFromContext(ctx)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Error: "missing_token"})
		return
	}

	isSuper, err := s.orgs.IsSuperAdmin(ctx, userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{Error: "internal_error"})
		return
	}
	if !isSuper {
		c.AbortWithStatusJSON(http.StatusForbidden, apiError{Error: "forbidden"})
		return
	}
	c.Next()
}

func (s *Server) createOrganization(c *gin.Context) {
	var req orgservice.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid_request"})
		return
	}

	org, err := s.orgs.CreateOrganization(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (s *Server) listOrganizations(c *gin.Context) {
	orgs, err := s.orgs.ListOrganizations(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

func (s *Server) createUser(c *gin.Context) {
	var req orgservice.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid_request"})
		return
	}

	user, err := s.orgs.CreateUser(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// me returns the caller's resolved access profile for the current
// organization.
func (s *Server) me(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, _ := orgcontext.OrgIDFromContext(ctx)
	userID, _ := orgcontext.UserIDFromContext(ctx)

	profile, err := s.authz.ContextFor(ctx, orgID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
