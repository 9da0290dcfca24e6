// Package config exposes typed, read-only access to the service settings.
//
// Durations are stored as plain integers in the file and the getter names
// the unit, so `otp_cooldown_seconds: 30` is read with GetSecond.
package config

import (
	"io"
	"time"
)

type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetUint16(key string) uint16
	GetFloat64(key string) float64

	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration

	// GetBinary decodes a base64 value. It returns nil when the value is
	// missing or not valid base64.
	GetBinary(key string) []byte

	// GetArray accepts either a YAML sequence or a comma separated string.
	// Entries are trimmed and empty entries dropped.
	GetArray(key string) []string
}
