package constants

import (
	"slices"

	"club25-backend/internal/pkg/constants"
)

var doorStaff = []string{constants.Staff, constants.Admin}

// PermissionRoles maps each permission to the roles allowed to use it. Staff run the
// door; everything else is admin-only.
var PermissionRoles = map[string][]string{
	CheckInGuests:  doorStaff,
	ViewGuests:     doorStaff,
	ViewLiveFeed:   doorStaff,
	ManageGuests:   {constants.Admin},
	ManageDrops:    {constants.Admin},
	ManageInvites:  {constants.Admin},
	ManageMedia:    {constants.Admin},
	ViewAnalytics:  {constants.Admin},
	ManageSettings: {constants.Admin},
}

// AllowedRole reports whether role may use permission.
func AllowedRole(permission, role string) bool {
	return slices.Contains(PermissionRoles[permission], role)
}
