package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
)

func (s *DB) MarkRegistrationOTPVerified(ctx context.Context, email string, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkRegistrationOTPVerified")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE registration_otps SET verified_at = $2, updated_at = NOW()
		WHERE email = $1`, email, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// SetUserOTP overwrites whatever code is pending for the user.
func (s *DB) SetUserOTP(ctx context.Context, in entity.UserOTP) (err error) {
	ctx, span := s.startSpan(ctx, "SetUserOTP")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE users
		SET otp = $2, otp_purpose = $3, otp_expires_at = $4, updated_at = NOW()
		WHERE id = $1`, in.UserID, in.OTP, int16(in.Purpose), in.ExpiresAt)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// ResetUserPassword stores the new hash and clears the pending code. It only
// applies while the stored code still equals otpHash, so a code is spent once.
func (s *DB) ResetUserPassword(ctx context.Context, userID int64, otpHash, newHash string) (err error) {
	ctx, span := s.startSpan(ctx, "ResetUserPassword")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE users
		SET password = $3, otp = NULL, otp_purpose = NULL, otp_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND otp = $2`, userID, otpHash, newHash)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateUserProfile(ctx context.Context, id int64, p entity.Profile) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserProfile")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE users
		SET name = $2, phone = $3, team_name = $4, college = $5, dept = $6, year = $7, members = $8, updated_at = NOW()
		WHERE id = $1`, id, p.Name, p.Phone, p.TeamName, p.College, p.Dept, p.Year, membersOrEmpty(p.Members))
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateUserRoleByEmail(ctx context.Context, email string, role entity.Role) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserRoleByEmail")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW()
		WHERE LOWER(email) = LOWER($1)`, email, role.String())
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
