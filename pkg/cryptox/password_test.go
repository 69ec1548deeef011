package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasher_Hash(t *testing.T) {
	h := NewHasher("test-pepper")

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "hash should be in PHC format")

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6)
			require.Equal(t, "m=19456,t=2,p=1", parts[3])
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")

			require.NoError(t, h.Verify(tt.password, hash))
		})
	}
}

func TestHasher_UniqueSalts(t *testing.T) {
	h := NewHasher("")

	hash1, err := h.Hash("samepassword")
	require.NoError(t, err)
	hash2, err := h.Hash("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
	require.NoError(t, h.Verify("samepassword", hash1))
	require.NoError(t, h.Verify("samepassword", hash2))
}

func TestHasher_WrongPassword(t *testing.T) {
	h := NewHasher("pepper")
	hash, err := h.Hash("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{
		"wrong-password",
		"Correct-Password",
		"correct-password ",
		"",
		"correct-passwor",
		strings.Repeat("x", 10000),
	} {
		err := h.Verify(wrong, hash)
		require.ErrorIs(t, err, ErrMismatch, "input %q", wrong)
	}
}

func TestHasher_PepperIsApplied(t *testing.T) {
	hash, err := NewHasher("pepper-a").Hash("secret")
	require.NoError(t, err)

	require.NoError(t, NewHasher("pepper-a").Verify("secret", hash))
	require.ErrorIs(t, NewHasher("pepper-b").Verify("secret", hash), ErrMismatch)
	require.ErrorIs(t, NewHasher("").Verify("secret", hash), ErrMismatch)
}

func TestHasher_InvalidHashFormat(t *testing.T) {
	h := NewHasher("")

	tests := []struct {
		name        string
		invalidHash string
	}{
		{"empty hash", ""},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"zero parameters", "$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing version", "$argon2id$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Verify("test-password", tt.invalidHash)
			require.ErrorIs(t, err, ErrMalformedHash)
		})
	}
}

func TestLoadOrCreatePepper(t *testing.T) {
	t.Run("empty path disables pepper", func(t *testing.T) {
		pepper, err := LoadOrCreatePepper("")
		require.NoError(t, err)
		require.Empty(t, pepper)
	})

	t.Run("creates then reloads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "pepper")

		first, err := LoadOrCreatePepper(path)
		require.NoError(t, err)
		require.NotEmpty(t, first)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		second, err := LoadOrCreatePepper(path)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("empty file is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pepper")
		require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

		_, err := LoadOrCreatePepper(path)
		require.Error(t, err)
	})
}
