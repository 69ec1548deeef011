package domain

// Identity is the per-request view of who is calling. Requests without a
// usable session carry the guest identity.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
	LoggedIn bool
}

// Guest returns the anonymous identity.
func Guest() Identity {
	return Identity{Role: RoleGuest}
}
