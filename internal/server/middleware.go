package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/insightdeck/insightdeck/internal/authorization"
	"github.com/insightdeck/insightdeck/internal/orgcontext"
	orgservice "github.com/insightdeck/insightdeck/internal/organization/service"
)

const orgHeader = "X-Org-ID"

// ErrorHandlingMiddleware turns accumulated gin errors into one JSON
// response, unless a handler already wrote a body.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		lastErr := c.Errors.Last()
		if lastErr == nil || c.Writer.Written() {
			return
		}
		status, payload := mapError(lastErr.Err)
		c.JSON(status, payload)
	}
}

// TokenRequired authenticates the request's bearer token and stores the
// resolved user id on the request context.
func TokenRequired(orgs orgservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Error: "missing_token"})
			return
		}

		user, err := orgs.FindUserByToken(c.Request.Context(), token)
		if err != nil {
			status, payload := mapError(err)
			c.AbortWithStatusJSON(status, payload)
			return
		}

		ctx := orgcontext.WithUserID(c.Request.Context(), user.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OrgRequired resolves the organization header and stores the org id on the
// request context. Membership is enforced per route by RequireAccess.
func OrgRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(orgHeader))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "missing_org_header"})
			return
		}
		orgID, err := snowflake.ParseString(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid_org_header"})
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAccess gates a route on the caller's role within the current
// organization.
func RequireAccess(authz authorization.Service, object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		orgID, ok := orgcontext.OrgIDFromContext(ctx)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "missing_org_header"})
			return
		}
		userID, ok := orgcontext.UserIDFromContext(ctx)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Error: "missing_token"})
			return
		}

		if err := authz.Authorize(ctx, orgID, userID, object, action); err != nil {
			status, payload := mapError(err)
			c.AbortWithStatusJSON(status, payload)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}
