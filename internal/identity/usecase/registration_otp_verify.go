package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
)

type VerifyRegistrationOTPInput struct {
	Email string `validate:"required,email,max=255"`
	OTP   string `validate:"required"`
}

// VerifyRegistrationOTP checks the code without consuming it; the code stays
// re-checkable until it is superseded, expires, or registration spends it.
func (s *Usecase) VerifyRegistrationOTP(ctx context.Context, in VerifyRegistrationOTPInput) error {
	ctx, span := s.startSpan(ctx, "VerifyRegistrationOTP")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	ro, err := s.repoDB.GetRegistrationOTP(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "registration otp not found", "email", in.Email)
		return errInvalidOTP
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get registration otp", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if !s.otpMatches(&ro.OTP, &ro.ExpiresAt, in.OTP) {
		slog.WarnContext(ctx, "registration otp mismatch or expired", "email", in.Email)
		return errInvalidOTP
	}

	if err := s.repoDB.MarkRegistrationOTPVerified(ctx, in.Email, s.clock.Now()); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return errInvalidOTP
		}
		slog.ErrorContext(ctx, "failed to repo mark registration otp verified", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
