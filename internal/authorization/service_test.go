package authorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextHasAccess(t *testing.T) {
	admin := Context{Role: RoleAdmin, Capabilities: capabilitiesFor(RoleAdmin)}
	assert.True(t, admin.HasAccess(ObjectUpload, ActionWrite))
	assert.True(t, admin.HasAccess(ObjectUpload, ActionDelete))
	assert.True(t, admin.HasAccess(ObjectDashboard, ActionRead))
	assert.False(t, admin.HasAccess(ObjectOrganization, ActionManage))

	user := Context{Role: RoleUser, Capabilities: capabilitiesFor(RoleUser)}
	assert.True(t, user.HasAccess(ObjectDashboard, ActionRead))
	assert.True(t, user.HasAccess(ObjectExport, ActionRead))
	assert.False(t, user.HasAccess(ObjectUpload, ActionWrite))
	assert.False(t, user.HasAccess(ObjectUpload, ActionDelete))

	super := Context{Role: RoleSuperAdmin, Capabilities: capabilitiesFor(RoleSuperAdmin)}
	assert.True(t, super.HasAccess(ObjectOrganization, ActionManage))
	assert.True(t, super.HasAccess(ObjectUpload, ActionDelete))
}

func TestContextZeroValueDeniesEverything(t *testing.T) {
	var none Context
	assert.False(t, none.HasAccess(ObjectDashboard, ActionRead))
	assert.False(t, none.HasAccess("*", "*"))
}
