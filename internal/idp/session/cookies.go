package session

import (
	"net/http"
	"time"
)

const (
	AccessCookie  = "jwt"
	RefreshCookie = "refresh_token"
)

// CookieFactory builds the session cookies with a uniform attribute set.
type CookieFactory struct {
	Secure bool
}

// Build returns an HttpOnly, SameSite=Lax cookie scoped to the whole site.
// A zero maxAge makes it a browser-session cookie.
func (f CookieFactory) Build(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   f.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Clear returns a cookie that expires name immediately.
func (f CookieFactory) Clear(name string) *http.Cookie {
	c := f.Build(name, "", 0)
	// net/http renders a negative MaxAge as "Max-Age=0".
	c.MaxAge = -1
	return c
}

// tokenFrom reads a cookie value, treating a missing cookie as empty.
func tokenFrom(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
