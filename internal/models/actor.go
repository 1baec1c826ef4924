package models

// Actor is the authenticated caller a service acts for.
type Actor struct {
	UserID   string
	TenantID string
	Role     string
}

func (a Actor) IsSuperadmin() bool { return a.Role == RoleSuperAdmin }

// CanManage reports whether the caller may change tenant configuration.
func (a Actor) CanManage() bool {
	return a.Role == RoleOwner || a.Role == RoleManager || a.Role == RoleSuperAdmin
}
