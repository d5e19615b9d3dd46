package permissions

// Role names recognized by the authorization pipeline. Principal is the
// tenant-level super-role (wildcard permissions within its tenant);
// platform owner is the cross-tenant escape hatch and is never stored as a
// UserRole grant.
const (
	RolePlatformOwner = "platform_owner"
	RolePrincipal     = "principal"
	RoleRegistrar     = "registrar"
	RoleAccountant    = "accountant"
	RoleTeacher       = "teacher"
	RoleStudent       = "student"
)

// ElevatedRoles bypass requireOwnership unconditionally: they act on behalf
// of the tenant rather than on their own records.
var ElevatedRoles = []string{RolePrincipal, RoleRegistrar, RoleAccountant, RoleTeacher}

// HasRole reports whether roles contains any of the named roles.
func HasRole(roles []string, named ...string) bool {
	for _, r := range roles {
		for _, n := range named {
			if r == n {
				return true
			}
		}
	}
	return false
}

// IsElevated reports whether roles holds any role exempt from
// requireOwnership's identity check.
func IsElevated(roles []string) bool {
	return HasRole(roles, ElevatedRoles...)
}
