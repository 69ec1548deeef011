package service

import (
	"errors"
	"strings"
)

var (
	// ErrAuthenticationFailed covers wrong passwords, unknown users at login,
	// bad client secrets, client mismatches and expired codes. Callers must
	// not reveal which of these occurred.
	ErrAuthenticationFailed = errors.New("authentication_failed")

	// ErrNotFound is reported on server-to-server endpoints only.
	ErrNotFound = errors.New("not_found")

	// ErrInvalidClient means the browser named an unknown or inactive client site.
	ErrInvalidClient = errors.New("invalid_client")

	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid_input")
)

// RegistrationError reports which unique fields are already taken.
type RegistrationError struct {
	UsernameTaken bool
	EmailTaken    bool
}

func (e *RegistrationError) Error() string {
	var taken []string
	if e.UsernameTaken {
		taken = append(taken, "username")
	}
	if e.EmailTaken {
		taken = append(taken, "email")
	}
	if len(taken) == 0 {
		return "registration conflict"
	}
	return strings.Join(taken, " and ") + " already taken"
}

func (e *RegistrationError) Unwrap() error { return ErrConflict }

// ValidationError reports which registration fields failed their format check.
type ValidationError struct {
	UsernameValid bool
	EmailValid    bool
	PasswordValid bool
}

func (e *ValidationError) Error() string {
	var bad []string
	if !e.UsernameValid {
		bad = append(bad, "username")
	}
	if !e.EmailValid {
		bad = append(bad, "email")
	}
	if !e.PasswordValid {
		bad = append(bad, "password")
	}
	return "invalid " + strings.Join(bad, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
