package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verdict is the outcome of verifying an access token.
type Verdict int

const (
	// Invalid covers malformed tokens, bad signatures, wrong algorithms
	// and unusable claims. It is the zero value.
	Invalid Verdict = iota
	// Valid means the signature checks out and the token is unexpired.
	Valid
	// Expired means the signature checks out but exp has passed.
	Expired
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "invalid"
	}
}

// Result carries the verdict and, for Valid and Expired, the claims.
type Result struct {
	Verdict Verdict
	Claims  Claims
}

// Verifier checks HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte

	// Now is the clock used for expiry checks. Defaults to time.Now.
	Now func() time.Time
}

// NewVerifier builds a Verifier. An empty secret yields a Verifier that
// rejects every token.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret, Now: time.Now}
}

// Verify classifies token. It never returns claims for an Invalid verdict.
func (v *Verifier) Verify(token string) Result {
	if v == nil || len(v.secret) == 0 || token == "" {
		return Result{Verdict: Invalid}
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})

	switch {
	case err == nil && parsed.Valid:
		return Result{Verdict: Valid, Claims: *claims}
	case isOnlyExpired(err):
		return Result{Verdict: Expired, Claims: *claims}
	default:
		return Result{Verdict: Invalid}
	}
}

// isOnlyExpired reports whether err is a claims failure caused solely by
// exp. Signature verification runs before claim validation, so reaching
// ErrTokenInvalidClaims implies the signature was sound.
func isOnlyExpired(err error) bool {
	if err == nil {
		return false
	}
	if !errors.Is(err, jwt.ErrTokenInvalidClaims) || !errors.Is(err, jwt.ErrTokenExpired) {
		return false
	}
	return !errors.Is(err, jwt.ErrTokenSignatureInvalid) &&
		!errors.Is(err, jwt.ErrTokenMalformed) &&
		!errors.Is(err, jwt.ErrTokenNotValidYet) &&
		!errors.Is(err, jwt.ErrTokenRequiredClaimMissing)
}
