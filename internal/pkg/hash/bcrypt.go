package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned when the password plus pepper exceeds the
// 72 bytes bcrypt accepts.
var ErrPasswordTooLong = errors.New("hash: password too long")

const bcryptMaxBytes = 72

// Bcrypt hashes passwords with an adaptive work factor. A non-empty pepper
// is appended to every plaintext and must stay out of the database.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt falls back to bcrypt.DefaultCost (10) when cost is out of range.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (b *Bcrypt) Hash(password string) ([]byte, error) {
	salted := b.salted(password)
	if len(salted) > bcryptMaxBytes {
		return nil, ErrPasswordTooLong
	}
	return bcrypt.GenerateFromPassword(salted, b.cost)
}

func (b *Bcrypt) Verify(hashed, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), b.salted(password))
	return err == nil
}

func (b *Bcrypt) salted(password string) []byte {
	return []byte(password + b.pepper)
}
