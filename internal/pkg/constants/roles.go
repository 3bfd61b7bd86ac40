package constants

const (
	Admin = "admin"
	Staff = "staff"
)

// ValidRoles is the set of allowed back-office roles.
var ValidRoles = []string{Staff, Admin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
