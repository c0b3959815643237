package domain

const (
	RoleSuperAdmin  = "SUPER_ADMIN"
	RoleTenantAdmin = "TENANT_ADMIN"
	RoleTenantUser  = "TENANT_USER"
)

// GlobalTenant is the acting tenant of a super admin request that names no
// tenant.
const GlobalTenant = "GLOBAL"

func IsKnownRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleTenantAdmin, RoleTenantUser:
		return true
	}
	return false
}
