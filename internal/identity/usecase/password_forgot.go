package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
)

type PasswordForgotInput struct {
	Username string `validate:"required"`
}

func (s *Usecase) PasswordForgot(ctx context.Context, in PasswordForgotInput) error {
	ctx, span := s.startSpan(ctx, "PasswordForgot")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByUsername(ctx, in.Username)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "forgot password for unknown username", "username", in.Username)
		return goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by username", "username", in.Username, "error", err)
		return goerror.NewServer(err)
	}

	return s.sendUserOTP(ctx, user, entity.OTPPurposePasswordReset)
}

// sendUserOTP stores a fresh code for the user, replacing any pending one,
// then mails it. The code stays stored when the mail fails. Reset and change
// codes cool down independently.
func (s *Usecase) sendUserOTP(ctx context.Context, user *entity.User, purpose entity.OTPPurpose) error {
	kind := OTPMailPasswordReset
	ttl := s.minutes("modules.identity.password_reset_otp_ttl_minutes", defaultPasswordResetOTPTTL)
	cooldownKey := "reset:user:" + strconv.FormatInt(user.ID, 10)
	if purpose == entity.OTPPurposePasswordChange {
		kind = OTPMailPasswordChange
		ttl = s.minutes("modules.identity.password_change_otp_ttl_minutes", defaultPasswordChangeOTPTTL)
		cooldownKey = "change:user:" + strconv.FormatInt(user.ID, 10)
	}

	acquired, err := s.acquireCooldown(ctx, cooldownKey)
	if err != nil {
		return err
	}

	code, digest, err := s.issueOTP(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.SetUserOTP(ctx, entity.UserOTP{
		UserID:    user.ID,
		OTP:       digest,
		Purpose:   purpose,
		ExpiresAt: s.clock.Now().Add(ttl),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo set user otp", "user_id", user.ID, "purpose", purpose, "error", err)
		if acquired {
			s.releaseCooldown(ctx, cooldownKey)
		}
		return goerror.NewServer(err)
	}

	if err := s.repoMail.SendOTP(ctx, OTPMail{
		Kind:     kind,
		To:       user.Email,
		Code:     code,
		ValidFor: ttl,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send user otp mail", "user_id", user.ID, "purpose", purpose, "error", err)
		if acquired {
			s.releaseCooldown(ctx, cooldownKey)
		}
		return goerror.NewServer(err)
	}

	return nil
}
