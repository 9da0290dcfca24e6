// Package clock hides the wall clock behind an interface so OTP expiry and
// token issuance can run against a frozen instant in tests.
package clock

import "time"

// Clocker reports the current instant.
type Clocker interface {
	Now() time.Time
}

// System reads the host clock.
type System struct{}

// New returns the host clock.
func New() System {
	return System{}
}

// Now returns the current time in UTC.
func (System) Now() time.Time {
	return time.Now().UTC()
}
