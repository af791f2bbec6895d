package auth

// Actor roles. The set is closed: any other value in a token is rejected.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleCustomer   = "customer"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleCustomer:
		return true
	}
	return false
}

// TenantBound reports whether actors of this role must be bound to a tenant.
// super_admin is the only tenant-less role.
func TenantBound(role string) bool {
	return role != RoleSuperAdmin
}
