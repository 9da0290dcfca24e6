package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 keys SHA-256 with a server secret. Digests are hex encoded so
// they fit a text column.
type HMACSHA256 struct {
	key []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

func (h *HMACSHA256) Hash(code string) ([]byte, error) {
	return []byte(h.digest(code)), nil
}

// Verify compares in constant time.
func (h *HMACSHA256) Verify(hashed, code string) bool {
	return hmac.Equal([]byte(hashed), []byte(h.digest(code)))
}

func (h *HMACSHA256) digest(code string) string {
	mac := hmac.New(sha256.New, h.key)
	_, _ = mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}
