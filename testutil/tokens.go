package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	jose "gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"
)

// Token settings shared by tests that exercise the real validator
const (
	TestJWTSecret   = "test-secret-do-not-use-in-production"
	TestJWTIssuer   = "edu-brokerage-test"
	TestJWTAudience = "edu-brokerage-api-test"
)

// TokenOptions describes the claims of a signed test token
type TokenOptions struct {
	Subject  string
	UserID   string
	Role     string
	Name     string
	Email    string
	Issuer   string
	Audience string
	Secret   string
	Expiry   time.Duration
}

// SignToken returns an HS256 compact JWT. Zero-valued options fall back to
// the shared test settings; a negative Expiry produces an expired token.
func SignToken(t *testing.T, opts TokenOptions) string {
	t.Helper()

	if opts.Secret == "" {
		opts.Secret = TestJWTSecret
	}
	if opts.Issuer == "" {
		opts.Issuer = TestJWTIssuer
	}
	if opts.Audience == "" {
		opts.Audience = TestJWTAudience
	}
	if opts.Expiry == 0 {
		opts.Expiry = time.Hour
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(opts.Secret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	now := time.Now()
	registered := jwt.Claims{
		Issuer:   opts.Issuer,
		Subject:  opts.Subject,
		Audience: jwt.Audience{opts.Audience},
		IssuedAt: jwt.NewNumericDate(now.Add(-2 * time.Minute)),
		Expiry:   jwt.NewNumericDate(now.Add(opts.Expiry)),
	}
	custom := map[string]interface{}{}
	if opts.UserID != "" {
		custom["userId"] = opts.UserID
	}
	if opts.Role != "" {
		custom["role"] = opts.Role
	}
	if opts.Name != "" {
		custom["name"] = opts.Name
	}
	if opts.Email != "" {
		custom["email"] = opts.Email
	}

	token, err := jwt.Signed(signer).Claims(registered).Claims(custom).CompactSerialize()
	require.NoError(t, err)
	return token
}
