package uid

import "github.com/google/uuid"

// UUID yields time-ordered v7 UUIDs, or random v4 ones if v7 fails.
type UUID struct{}

func NewUUID() UUID {
	return UUID{}
}

func (UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
