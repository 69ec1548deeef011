package session

import (
	"log/slog"
	"net/http"

	"github.com/authsite/idp/pkg/httpx"
	"github.com/authsite/idp/pkg/slogx"
)

// Middleware resolves the request identity before the handler runs and, when
// the access token was renewed, attaches the new jwt cookie to the response.
func Middleware(auth *Authenticator, cookies CookieFactory) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			out, err := auth.Authenticate(ctx, tokenFrom(r, AccessCookie), tokenFrom(r, RefreshCookie))
			if err != nil {
				slogx.FromContext(ctx).Error("session lookup failed", slog.Any("err", err))
				httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx = WithIdentity(ctx, out.Identity)
			if out.Identity.LoggedIn {
				ctx = slogx.With(ctx, slog.Int64("user_id", out.Identity.UserID))
			}
			r = r.WithContext(ctx)

			if out.RenewedToken == "" {
				next.ServeHTTP(w, r)
				return
			}

			rw := &renewalWriter{ResponseWriter: w, cookie: cookies.Build(AccessCookie, out.RenewedToken, 0)}
			next.ServeHTTP(rw, r)
			rw.attach()
		})
	}
}

// renewalWriter adds the renewed access cookie as the headers are committed.
type renewalWriter struct {
	http.ResponseWriter

	cookie *http.Cookie
	done   bool
}

func (rw *renewalWriter) attach() {
	if rw.done {
		return
	}
	rw.done = true
	if hasCookie(rw.Header(), AccessCookie) {
		return
	}
	http.SetCookie(rw.ResponseWriter, rw.cookie)
}

func (rw *renewalWriter) WriteHeader(code int) {
	rw.attach()
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *renewalWriter) Write(b []byte) (int, error) {
	rw.attach()
	return rw.ResponseWriter.Write(b)
}

func (rw *renewalWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

func hasCookie(h http.Header, name string) bool {
	for _, line := range h.Values("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err == nil && c.Name == name {
			return true
		}
	}
	return false
}
