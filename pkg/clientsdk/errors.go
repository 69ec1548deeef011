package clientsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/authsite/idp/pkg/httpx"
)

// APIError is the error body of the server-to-server endpoints. ErrorCode
// carries the HTTP status.
type APIError struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("idp error %d: %s", e.ErrorCode, e.Message)
}

// WriteError writes e with its status code.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.ErrorCode)
	_ = json.NewEncoder(w).Encode(e)
}

// Is matches APIErrors by code so callers can use errors.Is against the
// predefined values.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.ErrorCode == e.ErrorCode
}

var (
	ErrBadRequest = &APIError{
		ErrorCode: http.StatusBadRequest,
		Message:   "the request is malformed or missing required fields",
	}

	// ErrNotFound is returned for an unknown code or client.
	ErrNotFound = &APIError{
		ErrorCode: http.StatusNotFound,
		Message:   "not found",
	}

	// ErrUnauthorized is returned for an expired code, a bad client secret,
	// or a code issued to another client.
	ErrUnauthorized = &APIError{
		ErrorCode: http.StatusUnauthorized,
		Message:   "authentication failed",
	}

	ErrServerError = &APIError{
		ErrorCode: http.StatusInternalServerError,
		Message:   "internal server error",
	}
)
