package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound      = errors.New("organization_not_found")
	ErrAlreadyExists = errors.New("organization_already_exists")
	ErrNotMember     = errors.New("not_a_member")
	ErrInvalidName   = errors.New("invalid_organization_name")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidToken  = errors.New("invalid_token")
)

// Role is a member's role within an organization.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// Organization is one tenant. All records, uploads and memberships hang off
// its id.
type Organization struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"not null"`
	Slug      string       `json:"slug" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Organization) TableName() string { return "organizations" }

// User is an account able to hold memberships. Tokens are stored hashed.
type User struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Email        string       `json:"email" gorm:"uniqueIndex;not null"`
	Name         string       `json:"name"`
	APITokenHash string       `json:"-" gorm:"uniqueIndex;size:64"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// OrganizationMember ties a user to an organization with a role.
type OrganizationMember struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID     snowflake.ID `json:"org_id" gorm:"index:idx_org_members_org_user,unique;not null"`
	UserID    snowflake.ID `json:"user_id" gorm:"index:idx_org_members_org_user,unique;not null"`
	Role      Role         `json:"role" gorm:"size:20;not null"`
	CreatedAt time.Time    `json:"created_at"`
}

func (OrganizationMember) TableName() string { return "organization_members" }

// HashToken derives the stored form of an API token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
