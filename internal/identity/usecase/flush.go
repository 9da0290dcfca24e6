package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
	"github.com/shandysiswandi/datasprint/internal/shared/constant"
)

// Flush deletes every non-admin account and every registration code on behalf
// of an authenticated admin.
func (s *Usecase) Flush(ctx context.Context) (*entity.FlushResult, error) {
	ctx, span := s.startSpan(ctx, "Flush")
	defer span.End()

	admin, err := s.authenticatedAndAuthorized(ctx, constant.PermIdentityRegistrations, constant.PermActDelete)
	if err != nil {
		return nil, err
	}

	slog.WarnContext(ctx, "flushing registrations", "by", admin.ID)

	return s.flush(ctx)
}

// FlushAll is Flush without a caller identity, for operator tooling.
func (s *Usecase) FlushAll(ctx context.Context) (*entity.FlushResult, error) {
	ctx, span := s.startSpan(ctx, "FlushAll")
	defer span.End()

	return s.flush(ctx)
}

func (s *Usecase) flush(ctx context.Context) (*entity.FlushResult, error) {
	res, err := s.repoDB.FlushRegistrations(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo flush registrations", "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "registrations flushed", "users", res.Users, "registration_otps", res.RegistrationOTPs)

	return &res, nil
}
