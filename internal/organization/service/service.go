package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/insightdeck/insightdeck/internal/organization/domain"
)

// CreateOrganizationRequest carries the fields for a new tenant.
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateUserRequest carries the fields for a new account.
type CreateUserRequest struct {
	Email string       `json:"email" binding:"required,email"`
	Name  string       `json:"name"`
	Token string       `json:"token" binding:"required"`
	OrgID snowflake.ID `json:"org_id"`
	Role  domain.Role  `json:"role"`
}

// Service manages tenants, accounts and memberships.
type Service interface {
	CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*domain.Organization, error)
	ListOrganizations(ctx context.Context) ([]*domain.Organization, error)
	GetOrganization(ctx context.Context, orgID snowflake.ID) (*domain.Organization, error)

	CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error)
	FindUserByToken(ctx context.Context, token string) (*domain.User, error)

	AddMember(ctx context.Context, orgID, userID snowflake.ID, role domain.Role) (*domain.OrganizationMember, error)
	MemberRole(ctx context.Context, orgID, userID snowflake.ID) (domain.Role, error)
	// IsSuperAdmin reports whether the user holds the superadmin role in
	// any organization. Superadmins manage tenants across the deployment.
	IsSuperAdmin(ctx context.Context, userID snowflake.ID) (bool, error)
}
