package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
)

type SendRegistrationOTPInput struct {
	Email string `validate:"required,email,max=255"`
}

func (s *Usecase) SendRegistrationOTP(ctx context.Context, in SendRegistrationOTPInput) error {
	ctx, span := s.startSpan(ctx, "SendRegistrationOTP")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	cooldownKey := "registration:" + in.Email
	acquired, err := s.acquireCooldown(ctx, cooldownKey)
	if err != nil {
		return err
	}

	code, digest, err := s.issueOTP(ctx)
	if err != nil {
		return err
	}

	ttl := s.minutes("modules.identity.registration_otp_ttl_minutes", defaultRegistrationOTPTTL)
	if err := s.repoDB.UpsertRegistrationOTP(ctx, entity.RegistrationOTP{
		Email:     in.Email,
		OTP:       digest,
		ExpiresAt: s.clock.Now().Add(ttl),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert registration otp", "email", in.Email, "error", err)
		if acquired {
			s.releaseCooldown(ctx, cooldownKey)
		}
		return goerror.NewServer(err)
	}

	if err := s.repoMail.SendOTP(ctx, OTPMail{
		Kind:     OTPMailRegistration,
		To:       in.Email,
		Code:     code,
		ValidFor: ttl,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send registration otp mail", "email", in.Email, "error", err)
		if acquired {
			s.releaseCooldown(ctx, cooldownKey)
		}
		return goerror.NewServer(err)
	}

	return nil
}
