package shared

// Core platform permissions.
const (
	PermUsersView       = "user.view"
	PermUsersCreate     = "user.create"
	PermUsersUpdateOwn  = "user.update.own"
	PermUsersUpdateAny  = "user.update.any"
	PermUsersDeleteAny  = "user.delete.any"
	PermRolesView       = "role.view"
	PermRolesEdit       = "role.edit"
	PermPermissionsView = "permission.view"
	PermAccessLogView   = "access_log.view"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersCreate,
		PermUsersUpdateOwn,
		PermUsersUpdateAny,
		PermUsersDeleteAny,
		PermRolesView,
		PermRolesEdit,
		PermPermissionsView,
		PermAccessLogView,
	}
}
