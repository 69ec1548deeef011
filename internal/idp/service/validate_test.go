package service_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/authsite/idp/internal/idp/service"
	"github.com/stretchr/testify/require"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		want     *service.ValidationError
	}{
		{"valid", "alice_01", "alice@example.com", "secret1", nil},
		{"valid bounds", "abcdef", "a@b.io", "123456", nil},
		{"valid max", strings.Repeat("a", 16), "a.b+c@sub.example.org", strings.Repeat("p", 16), nil},
		{"short username", "ab", "alice@example.com", "secret1", &service.ValidationError{EmailValid: true, PasswordValid: true}},
		{"long username", strings.Repeat("a", 17), "alice@example.com", "secret1", &service.ValidationError{EmailValid: true, PasswordValid: true}},
		{"username bad chars", "alice bob", "alice@example.com", "secret1", &service.ValidationError{EmailValid: true, PasswordValid: true}},
		{"email no tld", "alice_01", "alice@example", "secret1", &service.ValidationError{UsernameValid: true, PasswordValid: true}},
		{"email no at", "alice_01", "alice.example.com", "secret1", &service.ValidationError{UsernameValid: true, PasswordValid: true}},
		{"short password", "alice_01", "alice@example.com", "12345", &service.ValidationError{UsernameValid: true, EmailValid: true}},
		{"long password", "alice_01", "alice@example.com", strings.Repeat("p", 17), &service.ValidationError{UsernameValid: true, EmailValid: true}},
		{"control char password", "alice_01", "alice@example.com", "secret\x00", &service.ValidationError{UsernameValid: true, EmailValid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidateRegistration(tt.username, tt.email, tt.password)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			var got *service.ValidationError
			require.True(t, errors.As(err, &got))
			require.Equal(t, *tt.want, *got)
		})
	}
}
