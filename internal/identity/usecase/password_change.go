package usecase

import (
	"context"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
)

type PasswordChangeInput struct {
	OTP         string `validate:"required,len=6"`
	NewPassword string `validate:"required,password"`
}

func (s *Usecase) PasswordOTPRequest(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "PasswordOTPRequest")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	return s.sendUserOTP(ctx, user, entity.OTPPurposePasswordChange)
}

func (s *Usecase) PasswordChange(ctx context.Context, in PasswordChangeInput) error {
	ctx, span := s.startSpan(ctx, "PasswordChange")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if _, err := s.checkUserOTP(ctx, user, in.OTP, entity.OTPPurposePasswordChange); err != nil {
		return err
	}

	return s.replacePassword(ctx, user, in.NewPassword)
}
