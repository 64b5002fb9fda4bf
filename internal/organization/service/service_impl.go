package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/insightdeck/insightdeck/internal/organization/domain"
	"github.com/insightdeck/insightdeck/pkg/db"
	"github.com/insightdeck/insightdeck/pkg/db/option"
	"github.com/insightdeck/insightdeck/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Node    *snowflake.Node
	Orgs    repository.Repository[domain.Organization]
	Users   repository.Repository[domain.User]
	Members repository.Repository[domain.OrganizationMember]
}

type service struct {
	log     *zap.Logger
	node    *snowflake.Node
	orgs    repository.Repository[domain.Organization]
	users   repository.Repository[domain.User]
	members repository.Repository[domain.OrganizationMember]
}

func New(p Params) Service {
	return &service{
		log:     p.Log.Named("organization.service"),
		node:    p.Node,
		orgs:    p.Orgs,
		users:   p.Users,
		members: p.Members,
	}
}

func (s *service) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	org := &domain.Organization{
		ID:   s.node.Generate(),
		Name: name,
		Slug: slug.Make(name),
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}

	s.log.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
	)
	return org, nil
}

func (s *service) ListOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	return s.orgs.Find(ctx, &domain.Organization{}, option.WithOrder("created_at ASC"))
}

func (s *service) GetOrganization(ctx context.Context, orgID snowflake.ID) (*domain.Organization, error) {
	org, err := s.orgs.FindOne(ctx, &domain.Organization{ID: orgID})
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func (s *service) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	user := &domain.User{
		ID:           s.node.Generate(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		APITokenHash: domain.HashToken(token),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}

	if req.OrgID > 0 {
		role := req.Role
		if role == "" {
			role = domain.RoleUser
		}
		if _, err := s.AddMember(ctx, req.OrgID, user.ID, role); err != nil {
			return nil, err
		}
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *service) FindUserByToken(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindOne(ctx, &domain.User{APITokenHash: domain.HashToken(token)})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}

func (s *service) AddMember(ctx context.Context, orgID, userID snowflake.ID, role domain.Role) (*domain.OrganizationMember, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if _, err := s.GetOrganization(ctx, orgID); err != nil {
		return nil, err
	}

	member := &domain.OrganizationMember{
		ID:     s.node.Generate(),
		OrgID:  orgID,
		UserID: userID,
		Role:   role,
	}
	if err := s.members.Create(ctx, member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return member, nil
}

func (s *service) IsSuperAdmin(ctx context.Context, userID snowflake.ID) (bool, error) {
	count, err := s.members.Count(ctx, &domain.OrganizationMember{UserID: userID, Role: domain.RoleSuperAdmin})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *service) MemberRole(ctx context.Context, orgID, userID snowflake.ID) (domain.Role, error) {
	member, err := s.members.FindOne(ctx, &domain.OrganizationMember{OrgID: orgID, UserID: userID})
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", domain.ErrNotMember
	}
	return member.Role, nil
}
