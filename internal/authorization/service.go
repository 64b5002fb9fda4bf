// Package authorization decides what a member may do inside an organization.
// Role policies live in casbin; the role itself comes from the membership
// table at request time.
package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	orgdomain "github.com/insightdeck/insightdeck/internal/organization/domain"
	orgservice "github.com/insightdeck/insightdeck/internal/organization/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrForbidden = errors.New("forbidden")

// Role mirrors the membership roles for policy subjects.
type Role = orgdomain.Role

const (
	RoleSuperAdmin = orgdomain.RoleSuperAdmin
	RoleAdmin      = orgdomain.RoleAdmin
	RoleUser       = orgdomain.RoleUser
)

// Capability is one object/action pair a role holds.
type Capability struct {
	Object string `json:"object"`
	Action string `json:"action"`
}

// Context is the resolved access profile of one member in one organization.
// It is a plain value so handlers can check access without another query.
type Context struct {
	Role         Role         `json:"role"`
	Capabilities []Capability `json:"capabilities"`
}

// HasAccess reports whether the context allows action on object.
func (c Context) HasAccess(object, action string) bool {
	for _, grant := range c.Capabilities {
		if (grant.Object == object || grant.Object == "*") && (grant.Action == action || grant.Action == "*") {
			return true
		}
	}
	return false
}

// Service answers authorization questions for the HTTP layer.
type Service interface {
	// Authorize returns ErrForbidden when the member's role does not
	// allow action on object within the organization.
	Authorize(ctx context.Context, orgID, userID snowflake.ID, object, action string) error
	// ContextFor resolves a member's full access profile.
	ContextFor(ctx context.Context, orgID, userID snowflake.ID) (Context, error)
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	Orgs     orgservice.Service
}

type service struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	orgs     orgservice.Service
}

func New(p Params) Service {
	return &service{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		orgs:     p.Orgs,
	}
}

func roleSubject(role Role) string {
	return "role:" + string(role)
}

func orgDomain(orgID snowflake.ID) string {
	return "org:" + orgID.String()
}

func (s *service) Authorize(ctx context.Context, orgID, userID snowflake.ID, object, action string) error {
	role, err := s.orgs.MemberRole(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, orgdomain.ErrNotMember) {
			return ErrForbidden
		}
		return err
	}

	allowed, err := s.enforcer.Enforce(roleSubject(role), orgDomain(orgID), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("access denied",
			zap.String("role", string(role)),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *service) ContextFor(ctx context.Context, orgID, userID snowflake.ID) (Context, error) {
	role, err := s.orgs.MemberRole(ctx, orgID, userID)
	if err != nil {
		return Context{}, err
	}
	return Context{Role: role, Capabilities: capabilitiesFor(role)}, nil
}

func capabilitiesFor(role Role) []Capability {
	switch role {
	case RoleSuperAdmin:
		return []Capability{{Object: "*", Action: "*"}}
	case RoleAdmin:
		return []Capability{
			{Object: ObjectUpload, Action: ActionRead},
			{Object: ObjectUpload, Action: ActionWrite},
			{Object: ObjectUpload, Action: ActionDelete},
			{Object: ObjectDashboard, Action: ActionRead},
			{Object: ObjectExport, Action: ActionRead},
			{Object: ObjectUser, Action: ActionManage},
		}
	case RoleUser:
		return []Capability{
			{Object: ObjectUpload, Action: ActionRead},
			{Object: ObjectDashboard, Action: ActionRead},
			{Object: ObjectExport, Action: ActionRead},
		}
	}
	return nil
}
