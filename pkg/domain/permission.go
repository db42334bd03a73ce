package domain

// Permission identifies a capability an actor may hold. The set of permissions
// is closed: there is no runtime grant path, which keeps the role table
// auditable without inspecting process state.
type Permission string

const (
	PermGuestsRead    Permission = "guests:read"
	PermGuestsWrite   Permission = "guests:write"
	PermGuestsDelete  Permission = "guests:delete"
	PermGuestsBulk    Permission = "guests:bulk"
	PermCheckInGuests Permission = "checkin:perform"
	PermAnalyticsRead Permission = "analytics:read"
	PermAdminsManage  Permission = "admins:manage"
	PermEventsRead    Permission = "events:read"
)

// AllPermissions enumerates every permission; super_admin holds the union.
var AllPermissions = []Permission{
	PermGuestsRead,
	PermGuestsWrite,
	PermGuestsDelete,
	PermGuestsBulk,
	PermCheckInGuests,
	PermAnalyticsRead,
	PermAdminsManage,
	PermEventsRead,
}

func (p Permission) String() string {
	return string(p)
}
