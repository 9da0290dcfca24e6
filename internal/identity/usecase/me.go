package usecase

import (
	"context"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
)

func (s *Usecase) Me(ctx context.Context) (*entity.User, error) {
	ctx, span := s.startSpan(ctx, "Me")
	defer span.End()

	return s.currentUser(ctx)
}
