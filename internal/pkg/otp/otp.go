package otp

import (
	"crypto/rand"
	"io"
	"math/big"
	"time"
)

const (
	// Length is the number of digits in every generated code.
	Length = 6

	minCode = 100000
	maxCode = 999999
)

// OTP generates one-time codes.
type OTP interface {
	// Generate returns a fresh six digit code.
	Generate() (string, error)
}

// Numeric generates codes from a cryptographically secure source.
type Numeric struct {
	rand io.Reader
}

// NewNumeric returns a generator reading from crypto/rand.
func NewNumeric() *Numeric {
	return &Numeric{rand: rand.Reader}
}

// Generate returns a code uniformly distributed over [100000, 999999].
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.rand, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", err
	}

	return big.NewInt(0).Add(v, big.NewInt(minCode)).String(), nil
}

// Valid reports whether a code stored with expiresAt can still be used at now.
// Expiry is exclusive: a code is dead from expiresAt onwards.
func Valid(now, expiresAt time.Time) bool {
	return now.Before(expiresAt)
}
