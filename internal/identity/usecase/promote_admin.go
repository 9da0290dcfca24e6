package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
)

type PromoteAdminInput struct {
	Email string `validate:"required,email"`
}

// PromoteAdmin grants the admin role to the account registered with the lead
// email. It has no HTTP route.
func (s *Usecase) PromoteAdmin(ctx context.Context, in PromoteAdminInput) error {
	ctx, span := s.startSpan(ctx, "PromoteAdmin")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err := s.repoDB.UpdateUserRoleByEmail(ctx, in.Email, entity.RoleAdmin)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "promote admin for unknown email", "email", in.Email)
		return goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update user role", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "user promoted to admin", "email", in.Email)
	return nil
}
