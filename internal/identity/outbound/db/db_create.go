package db

import (
	"context"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
)

// UpsertRegistrationOTP replaces any pending code for the email and resets
// its verification mark.
func (s *DB) UpsertRegistrationOTP(ctx context.Context, in entity.RegistrationOTP) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertRegistrationOTP")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO registration_otps (email, otp, expires_at, verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, NULL, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE
		SET otp = EXCLUDED.otp, expires_at = EXCLUDED.expires_at, verified_at = NULL, updated_at = NOW()`,
		in.Email, in.OTP, in.ExpiresAt)

	return s.mapError(err)
}
