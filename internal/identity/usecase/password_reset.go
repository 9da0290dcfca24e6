package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
)

type PasswordResetInput struct {
	Username    string `validate:"required"`
	OTP         string `validate:"required,len=6"`
	NewPassword string `validate:"required,password"`
}

func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.userWithValidOTP(ctx, in.Username, in.OTP, entity.OTPPurposePasswordReset)
	if err != nil {
		return err
	}

	return s.replacePassword(ctx, user, in.NewPassword)
}

// replacePassword writes the new hash and clears the code the user proved, so
// the same code cannot be replayed.
func (s *Usecase) replacePassword(ctx context.Context, user *entity.User, password string) error {
	hash, err := s.hashPassword(ctx, "new_password", password)
	if err != nil {
		return err
	}

	err = s.repoDB.ResetUserPassword(ctx, user.ID, *user.OTP, hash)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user otp spent concurrently", "user_id", user.ID)
		return errInvalidOTP
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reset user password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
