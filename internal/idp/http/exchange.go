package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/authsite/idp/internal/idp/service"
	"github.com/authsite/idp/pkg/clientsdk"
	"github.com/authsite/idp/pkg/httpx"
	"github.com/authsite/idp/pkg/slogx"
)

// ExchangeHandler serves the endpoints client sites call from their backends.
type ExchangeHandler struct {
	Broker *service.AuthorizationCodeBroker
}

// HandleVerifyAuthCode godoc
//
//	@Summary		Redeem an authorization code
//	@Description	Exchanges a one-time code for the user's identity and a refresh token bound to the calling client. Each code works once.
//	@Tags			Client sites
//	@Accept			json
//	@Produce		json
//	@Param			body	body		clientsdk.ExchangeRequest	true	"Code and client credentials"
//	@Success		200		{object}	clientsdk.ExchangeResponse
//	@Failure		400		{object}	clientsdk.APIError
//	@Failure		401		{object}	clientsdk.APIError	"expired code, bad secret or code issued to another client"
//	@Failure		404		{object}	clientsdk.APIError	"unknown code or client"
//	@Failure		500		{object}	clientsdk.APIError
//	@Router			/verify_auth_code [post].
func (h *ExchangeHandler) HandleVerifyAuthCode(w http.ResponseWriter, r *http.Request) {
	var req clientsdk.ExchangeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		clientsdk.ErrBadRequest.WriteError(w)
		return
	}
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.ClientID) == "" {
		clientsdk.ErrBadRequest.WriteError(w)
		return
	}

	res, err := h.Broker.Exchange(r.Context(), req.Code, req.ClientID, req.ClientSecret)
	if err != nil {
		writeBrokerError(w, r, "code exchange failed", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, clientsdk.ExchangeResponse{
		UserID:       res.UserID,
		Username:     res.Username,
		Role:         res.Role.String(),
		RefreshToken: res.RefreshToken,
	})
}

// HandleCheckRefresh godoc
//
//	@Summary		Check a refresh token
//	@Description	Reports whether the token is the live refresh token for the user and calling client.
//	@Tags			Client sites
//	@Accept			json
//	@Produce		json
//	@Param			body	body		clientsdk.CheckRefreshRequest	true	"Token and client credentials"
//	@Success		200		{object}	clientsdk.CheckRefreshResponse
//	@Failure		400		{object}	clientsdk.APIError
//	@Failure		401		{object}	clientsdk.APIError
//	@Failure		404		{object}	clientsdk.APIError	"unknown client"
//	@Failure		500		{object}	clientsdk.APIError
//	@Router			/check_refresh [post].
func (h *ExchangeHandler) HandleCheckRefresh(w http.ResponseWriter, r *http.Request) {
	var req clientsdk.CheckRefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		clientsdk.ErrBadRequest.WriteError(w)
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.ClientID) == "" || req.Token == "" {
		clientsdk.ErrBadRequest.WriteError(w)
		return
	}

	ok, err := h.Broker.CheckRefresh(r.Context(), req.UserID, req.ClientID, req.ClientSecret, req.Token)
	if err != nil {
		writeBrokerError(w, r, "refresh check failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, clientsdk.CheckRefreshResponse{IsValid: ok})
}

func writeBrokerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	l := slogx.FromContext(r.Context())
	switch {
	case errors.Is(err, service.ErrNotFound):
		l.Info(msg, slog.String("reason", "not found"))
		clientsdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrAuthenticationFailed):
		l.Warn(msg, slog.String("reason", "authentication failed"))
		clientsdk.ErrUnauthorized.WriteError(w)
	default:
		l.Error(msg, slog.Any("err", err))
		clientsdk.ErrServerError.WriteError(w)
	}
}
