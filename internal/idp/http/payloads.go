package http

// Browser-facing request and response bodies. Server-to-server bodies live
// in pkg/clientsdk so client sites can share them.

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientID string `json:"client_id,omitempty"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
	ClientID        string `json:"client_id,omitempty"`
}

// SessionResponse is returned after a local login or registration; the
// tokens themselves travel in cookies.
type SessionResponse struct {
	Username string `json:"username"`
}

// RedirectResponse is returned when the login was for an external client.
type RedirectResponse struct {
	RedirectURI string `json:"redirect_uri"`
}

type LogoutResponse struct {
	Logout bool `json:"logout"`
}

type IdentityResponse struct {
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	LoggedIn bool   `json:"logged_in"`
}

// ValidationErrorResponse flags each registration field that failed its format check.
type ValidationErrorResponse struct {
	Error         string `json:"error"`
	Code          int    `json:"code"`
	UsernameValid bool   `json:"username_valid"`
	EmailValid    bool   `json:"email_valid"`
	PasswordValid bool   `json:"password_valid"`
}

// ConflictErrorResponse flags which unique registration fields are taken.
type ConflictErrorResponse struct {
	Error         string `json:"error"`
	Code          int    `json:"code"`
	UsernameTaken bool   `json:"username_taken"`
	EmailTaken    bool   `json:"email_taken"`
}
