package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type HS512 struct {
	cfg Config
}

func NewHS512(cfg Config) (*HS512, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, ErrSigningKeyTooShort
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &HS512{cfg: cfg}, nil
}

func (h *HS512) Generate(uid int64, username string) (string, error) {
	now := h.cfg.Clock.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        h.cfg.UUID.Generate(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    h.cfg.Issuer,
			Audience:  h.cfg.Audiences,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.TTL)),
		},
		UserID:   uid,
		Username: username,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(h.cfg.Secret)
}

// Verify checks signature, issuer, audience and the time claims against the
// configured clock. An expired token yields ErrTokenExpired; every other
// failure wraps ErrInvalidToken.
func (h *HS512) Verify(token string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(h.cfg.Issuer),
		jwt.WithTimeFunc(func() time.Time { return h.cfg.Clock.Now() }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if len(h.cfg.Audiences) > 0 {
		opts = append(opts, jwt.WithAudience(h.cfg.Audiences...))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, h.key, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case !parsed.Valid:
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func (h *HS512) key(t *jwt.Token) (any, error) {
	if t.Method != jwt.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}
	return h.cfg.Secret, nil
}
