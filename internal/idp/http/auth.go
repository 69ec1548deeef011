package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/authsite/idp/internal/idp/service"
	"github.com/authsite/idp/internal/idp/session"
	"github.com/authsite/idp/pkg/httpx"
	"github.com/authsite/idp/pkg/slogx"
)

// AuthHandler serves the browser-facing login surface.
type AuthHandler struct {
	Sessions *service.SessionService
	Cookies  session.CookieFactory
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Creates a player account and signs it in. For the internal client the session cookies are set; for an external client the response carries the redirect URI with an authorization code.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RegisterRequest			true	"Registration details"
//	@Success		200		{object}	SessionResponse			"internal client"
//	@Success		200		{object}	RedirectResponse		"external client"
//	@Failure		400		{object}	httpx.ErrorBody			"malformed body or unknown client"
//	@Failure		409		{object}	ConflictErrorResponse	"username or email taken"
//	@Failure		422		{object}	ValidationErrorResponse	"field format checks"
//	@Failure		500		{object}	httpx.ErrorBody
//	@Router			/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	c, err := h.Sessions.Register(r.Context(), service.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		ClientID: req.ClientID,
	})
	if err != nil {
		h.writeRegisterError(w, r, err)
		return
	}
	h.writeCompletion(w, c)
}

func (h *AuthHandler) writeRegisterError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	var rErr *service.RegistrationError

	switch {
	case errors.As(err, &vErr):
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:         "invalid registration details",
			Code:          http.StatusUnprocessableEntity,
			UsernameValid: vErr.UsernameValid,
			EmailValid:    vErr.EmailValid,
			PasswordValid: vErr.PasswordValid,
		})
	case errors.As(err, &rErr):
		httpx.WriteJSON(w, http.StatusConflict, ConflictErrorResponse{
			Error:         "username or email already taken",
			Code:          http.StatusConflict,
			UsernameTaken: rErr.UsernameTaken,
			EmailTaken:    rErr.EmailTaken,
		})
	case errors.Is(err, service.ErrInvalidClient):
		httpx.WriteError(w, http.StatusBadRequest, "unknown client")
	default:
		slogx.FromContext(r.Context()).Error("registration failed", slog.Any("err", err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Verifies a username or email and password. Wrong passwords and unknown users produce the same response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest		true	"Credentials"
//	@Success		200		{object}	SessionResponse		"internal client"
//	@Success		200		{object}	RedirectResponse	"external client"
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		401		{object}	httpx.ErrorBody
//	@Failure		429		{object}	httpx.ErrorBody
//	@Failure		500		{object}	httpx.ErrorBody
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if strings.TrimSpace(req.UsernameOrEmail) == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "username_or_email and password are required")
		return
	}

	c, err := h.Sessions.Login(r.Context(), service.LoginRequest{
		Identifier: req.UsernameOrEmail,
		Password:   req.Password,
		ClientID:   req.ClientID,
	})
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid username, email or password")
		return
	case errors.Is(err, service.ErrInvalidClient):
		httpx.WriteError(w, http.StatusBadRequest, "unknown client")
		return
	case err != nil:
		slogx.FromContext(r.Context()).Error("login failed", slog.Any("err", err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeCompletion(w, c)
}

func (h *AuthHandler) writeCompletion(w http.ResponseWriter, c *service.Completion) {
	if !c.Internal() {
		httpx.WriteJSON(w, http.StatusOK, RedirectResponse{RedirectURI: c.RedirectURI})
		return
	}
	http.SetCookie(w, h.Cookies.Build(session.AccessCookie, c.AccessToken, 0))
	http.SetCookie(w, h.Cookies.Build(session.RefreshCookie, c.RefreshToken, 0))
	httpx.WriteJSON(w, http.StatusOK, SessionResponse{Username: c.Username})
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Deletes every refresh token of the signed-in user and clears the session cookies.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	LogoutResponse
//	@Failure		500	{object}	httpx.ErrorBody
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id := session.IdentityFrom(r.Context())
	if id.LoggedIn {
		if _, err := h.Sessions.Logout(r.Context(), id.UserID); err != nil {
			slogx.FromContext(r.Context()).Error("logout failed", slog.Any("err", err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	http.SetCookie(w, h.Cookies.Clear(session.AccessCookie))
	http.SetCookie(w, h.Cookies.Clear(session.RefreshCookie))
	httpx.WriteJSON(w, http.StatusOK, LogoutResponse{Logout: true})
}

// HandleSession godoc
//
//	@Summary		Current session
//	@Description	Returns the identity attached to this request. Guests get logged_in false.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	IdentityResponse
//	@Router			/auth/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	id := session.IdentityFrom(r.Context())
	httpx.WriteJSON(w, http.StatusOK, IdentityResponse{
		UserID:   id.UserID,
		Username: id.Username,
		Role:     id.Role.String(),
		LoggedIn: id.LoggedIn,
	})
}
