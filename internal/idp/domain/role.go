package domain

// Role is the coarse authorization label carried in access tokens.
type Role string

const (
	RoleGuest  Role = "guest"
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// DefaultRole is assigned to newly registered users.
const DefaultRole = RolePlayer

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RolePlayer, RoleAdmin:
		return true
	}
	return false
}
