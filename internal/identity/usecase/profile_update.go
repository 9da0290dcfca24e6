package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
)

// ProfileUpdateInput lists the only fields a user may change on their own
// record. Nil means keep the stored value.
type ProfileUpdateInput struct {
	Name     *string        `validate:"omitnil,required,personname,max=128"`
	Phone    *string        `validate:"omitnil,required,phone"`
	TeamName *string        `validate:"omitnil,required,max=128"`
	College  *string        `validate:"omitnil,required,max=255"`
	Dept     *string        `validate:"omitnil,required,max=128"`
	Year     *string        `validate:"omitnil,required,max=16"`
	Members  *[]MemberInput `validate:"omitnil,max=3,dive"`
}

func (s *Usecase) ProfileUpdate(ctx context.Context, in ProfileUpdateInput) (*entity.User, error) {
	ctx, span := s.startSpan(ctx, "ProfileUpdate")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(in.Name)
	trim(in.Phone)
	trim(in.TeamName)
	trim(in.College)
	trim(in.Dept)
	trim(in.Year)
	if in.Members != nil {
		members := normalizeMembers(*in.Members)
		in.Members = &members
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	p := user.Profile
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Name, in.Name)
	set(&p.Phone, in.Phone)
	set(&p.TeamName, in.TeamName)
	set(&p.College, in.College)
	set(&p.Dept, in.Dept)
	set(&p.Year, in.Year)
	if in.Members != nil {
		p.Members = toMembers(*in.Members)
	}

	err = s.repoDB.UpdateUserProfile(ctx, user.ID, p)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "profile update for missing user", "user_id", user.ID)
		return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update user profile", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	user.Profile = p
	return user, nil
}
