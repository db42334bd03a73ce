package domain

import dErrors "convene/pkg/domain-errors"

// Role is the actor's position in the administrative hierarchy.
// Invariant: the value must be one of the enumerated roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the allowlist;
// direct casting bypasses validation.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleStateAdmin  Role = "state_admin"
	RoleBranchAdmin Role = "branch_admin"
	RoleZonalAdmin  Role = "zonal_admin"
	RoleWorker      Role = "worker"
	RoleRegistrar   Role = "registrar"
	RoleGuest       Role = "guest"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleSuperAdmin:  true,
	RoleStateAdmin:  true,
	RoleBranchAdmin: true,
	RoleZonalAdmin:  true,
	RoleWorker:      true,
	RoleRegistrar:   true,
	RoleGuest:       true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

// ZoneScoped reports whether the role's jurisdiction is derived from assigned
// zones rather than a state or branch position.
func (r Role) ZoneScoped() bool {
	return r == RoleZonalAdmin || r == RoleRegistrar
}

func (r Role) String() string {
	return string(r)
}
