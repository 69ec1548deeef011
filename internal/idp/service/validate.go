package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,16}$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

const (
	minPasswordLen = 6
	maxPasswordLen = 16
)

// ValidateRegistration checks the format of registration fields and returns
// a *ValidationError naming every failing field, or nil.
func ValidateRegistration(username, email, password string) error {
	v := &ValidationError{
		UsernameValid: usernamePattern.MatchString(username),
		EmailValid:    IsEmail(email),
		PasswordValid: validPassword(password),
	}
	if v.UsernameValid && v.EmailValid && v.PasswordValid {
		return nil
	}
	return v
}

// IsEmail reports whether s has the shape of an email address.
func IsEmail(s string) bool {
	return len(s) <= 254 && emailPattern.MatchString(s)
}

func validPassword(p string) bool {
	n := utf8.RuneCountInString(p)
	if n < minPasswordLen || n > maxPasswordLen {
		return false
	}
	return !strings.ContainsFunc(p, func(r rune) bool {
		return unicode.IsControl(r) || r == utf8.RuneError
	})
}
