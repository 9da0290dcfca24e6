package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	Username string `validate:"required"`
	OTP      string `validate:"required,len=6"`
}

// VerifyOTP checks a password-reset code without clearing it.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) error {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	_, err := s.userWithValidOTP(ctx, in.Username, in.OTP, entity.OTPPurposePasswordReset)
	return err
}

// userWithValidOTP collapses a missing user, a wrong purpose, a mismatch and
// an expired code into the same error.
func (s *Usecase) userWithValidOTP(ctx context.Context, username, code string, purpose entity.OTPPurpose) (*entity.User, error) {
	user, err := s.repoDB.GetUserByUsername(ctx, username)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp check for unknown username", "username", username)
		return nil, errInvalidOTP
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by username", "username", username, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.checkUserOTP(ctx, user, code, purpose)
}

func (s *Usecase) checkUserOTP(ctx context.Context, user *entity.User, code string, purpose entity.OTPPurpose) (*entity.User, error) {
	if user.OTPPurpose != purpose || !s.otpMatches(user.OTP, user.OTPExpiresAt, code) {
		slog.WarnContext(ctx, "user otp mismatch or expired", "user_id", user.ID, "purpose", purpose)
		return nil, errInvalidOTP
	}

	return user, nil
}
