package authorization

import (
	_ "embed"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelConf string

// Objects and actions known to the policy layer.
const (
	ObjectOrganization = "organization"
	ObjectUpload       = "upload"
	ObjectDashboard    = "dashboard"
	ObjectExport       = "export"
	ObjectUser         = "user"

	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
	ActionManage = "manage"
)

// AnyDomain matches every organization in a policy rule.
const AnyDomain = "*"

// NewEnforcer builds the shared RBAC enforcer backed by the application
// database and seeds the default role policies.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", "casbin_rules")
	if err != nil {
		return nil, err
	}

	m, err := casbinmodel.NewModelFromString(modelConf)
	if err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// seedPolicies installs the built-in role policies. Rules are idempotent;
// AddPolicy is a no-op for rules already present.
func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	rules := [][]string{
		{roleSubject(RoleSuperAdmin), AnyDomain, "*", "*"},

		{roleSubject(RoleAdmin), AnyDomain, ObjectUpload, ActionRead},
		{roleSubject(RoleAdmin), AnyDomain, ObjectUpload, ActionWrite},
		{roleSubject(RoleAdmin), AnyDomain, ObjectUpload, ActionDelete},
		{roleSubject(RoleAdmin), AnyDomain, ObjectDashboard, ActionRead},
		{roleSubject(RoleAdmin), AnyDomain, ObjectExport, ActionRead},
		{roleSubject(RoleAdmin), AnyDomain, ObjectUser, ActionManage},

		{roleSubject(RoleUser), AnyDomain, ObjectUpload, ActionRead},
		{roleSubject(RoleUser), AnyDomain, ObjectDashboard, ActionRead},
		{roleSubject(RoleUser), AnyDomain, ObjectExport, ActionRead},
	}

	for _, rule := range rules {
		if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2], rule[3]); err != nil {
			return err
		}
	}
	return nil
}
