package clientsdk

// ExchangeRequest is the body of POST /verify_auth_code.
type ExchangeRequest struct {
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// ExchangeResponse is the success body of POST /verify_auth_code.
type ExchangeResponse struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	RefreshToken string `json:"refresh_token"`
}

// CheckRefreshRequest is the body of POST /check_refresh.
type CheckRefreshRequest struct {
	Token        string `json:"token"`
	UserID       int64  `json:"user_id"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// CheckRefreshResponse is the success body of POST /check_refresh.
type CheckRefreshResponse struct {
	IsValid bool `json:"is_valid"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
