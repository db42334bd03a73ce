// Package policy implements the authorization core: the closed role-to-permission
// registry and jurisdiction resolution over the organizational tree. Every
// guest read and write in the system funnels through a Scope produced here.
package policy

import "convene/pkg/domain"

// Registry is the immutable role-to-permission table. Build it once at process
// start with NewRegistry and inject it; there is deliberately no mutation path,
// so the whole authorization surface is auditable from this file alone.
type Registry struct {
	table map[domain.Role]map[domain.Permission]bool
}

// NewRegistry builds the permission table. super_admin holds the union of all
// permissions; every other role gets an explicit subset.
func NewRegistry() *Registry {
	grants := map[domain.Role][]domain.Permission{
		domain.RoleSuperAdmin: domain.AllPermissions,
		domain.RoleStateAdmin: {
			domain.PermGuestsRead,
			domain.PermGuestsWrite,
			domain.PermGuestsDelete,
			domain.PermGuestsBulk,
			domain.PermAnalyticsRead,
			domain.PermAdminsManage,
			domain.PermEventsRead,
		},
		domain.RoleBranchAdmin: {
			domain.PermGuestsRead,
			domain.PermGuestsWrite,
			domain.PermGuestsDelete,
			domain.PermGuestsBulk,
			domain.PermAnalyticsRead,
			domain.PermAdminsManage,
			domain.PermEventsRead,
		},
		domain.RoleZonalAdmin: {
			domain.PermGuestsRead,
			domain.PermGuestsWrite,
			domain.PermGuestsBulk,
			domain.PermAnalyticsRead,
			domain.PermEventsRead,
		},
		domain.RoleWorker: {
			domain.PermGuestsRead,
			domain.PermGuestsWrite,
			domain.PermEventsRead,
		},
		domain.RoleRegistrar: {
			domain.PermGuestsRead,
			domain.PermCheckInGuests,
			domain.PermEventsRead,
		},
		domain.RoleGuest: {},
	}

	table := make(map[domain.Role]map[domain.Permission]bool, len(grants))
	for role, perms := range grants {
		set := make(map[domain.Permission]bool, len(perms))
		for _, p := range perms {
			set[p] = true
		}
		table[role] = set
	}
	return &Registry{table: table}
}

// HasPermission reports whether the role holds the permission.
func (r *Registry) HasPermission(role domain.Role, perm domain.Permission) bool {
	return r.table[role][perm]
}

// HasAnyPermission reports whether the role holds at least one of the
// permissions.
func (r *Registry) HasAnyPermission(role domain.Role, perms ...domain.Permission) bool {
	for _, p := range perms {
		if r.table[role][p] {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the role holds every permission given.
func (r *Registry) HasAllPermissions(role domain.Role, perms ...domain.Permission) bool {
	for _, p := range perms {
		if !r.table[role][p] {
			return false
		}
	}
	return true
}

// Permissions returns a copy of the role's permission set. Callers get a
// snapshot, never the table itself.
func (r *Registry) Permissions(role domain.Role) []domain.Permission {
	set := r.table[role]
	perms := make([]domain.Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	return perms
}

// CanManageAdmin encodes the strict one-level-down management hierarchy:
// super_admin manages everyone, state_admin manages only branch_admin,
// branch_admin manages only zonal_admin. Every other pair is denied.
func (r *Registry) CanManageAdmin(manager, target domain.Role) bool {
	switch manager {
	case domain.RoleSuperAdmin:
		return target.IsValid()
	case domain.RoleStateAdmin:
		return target == domain.RoleBranchAdmin
	case domain.RoleBranchAdmin:
		return target == domain.RoleZonalAdmin
	default:
		return false
	}
}
