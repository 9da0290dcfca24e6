// Package hash turns secrets into stored digests: bcrypt for passwords and
// keyed SHA-256 for one-time codes.
package hash

// Hash produces a digest of a secret and checks a candidate against it.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}

var (
	_ Hash = (*Bcrypt)(nil)
	_ Hash = (*HMACSHA256)(nil)
)
