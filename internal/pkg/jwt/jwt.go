// Package jwt issues and verifies the bearer tokens handed out at register
// and login.
//
// Tokens are HS512 signed, carry the user ID and username, and are never
// stored server side. Logging out is a client side discard.
package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL applies when Config.TTL is zero.
const DefaultTTL = 7 * 24 * time.Hour

// minSecretLen is the HS512 key size in bytes.
const minSecretLen = 64

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	ErrSigningKeyTooShort   = errors.New("HS512 signing key must be at least 64 bytes")
	ErrTokenExpired         = errors.New("JWT token has expired")
	ErrInvalidToken         = errors.New("invalid token")
)

type JWT interface {
	Generate(uid int64, username string) (string, error)
	Verify(token string) (Claims, error)
}

type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id,string"`
	Username string `json:"username"`
}

type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     interface{ Now() time.Time }
	// UUID mints the jti claim.
	UUID interface{ Generate() string }
}

type authKey struct{}

// SetAuth attaches verified claims to ctx.
func SetAuth(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, authKey{}, c)
}

// GetAuth returns nil when the request was not authenticated.
func GetAuth(ctx context.Context) *Claims {
	if c, ok := ctx.Value(authKey{}).(Claims); ok {
		return &c
	}
	return nil
}
