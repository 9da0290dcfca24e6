package entity

import "time"

// RegistrationOTP is the pre-account email verification code, one per email.
type RegistrationOTP struct {
	Email      string
	OTP        string // hashed
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	UpdatedAt  time.Time
}
