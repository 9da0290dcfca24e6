package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
)

// MemberInput fields are each optional; a row left entirely blank is dropped.
type MemberInput struct {
	Name    string `validate:"omitempty,personname,max=128"`
	Email   string `validate:"omitempty,email,max=255"`
	Phone   string `validate:"omitempty,phone"`
	College string `validate:"max=255"`
	Dept    string `validate:"max=128"`
	Year    string `validate:"max=16"`
}

type RegisterInput struct {
	Username string        `validate:"required,min=3,max=64"`
	Password string        `validate:"required,password"`
	Email    string        `validate:"required,email,max=255"`
	TeamName string        `validate:"required,max=128"`
	Name     string        `validate:"required,personname,max=128"`
	Phone    string        `validate:"omitempty,phone"`
	College  string        `validate:"max=255"`
	Dept     string        `validate:"max=128"`
	Year     string        `validate:"max=16"`
	Members  []MemberInput `validate:"max=3,dive"`
}

type RegisterOutput struct {
	User  entity.User
	Token string
}

var errAlreadyRegistered = goerror.NewBusiness("Username or Lead Email already registered", goerror.CodeConflict)

func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.TeamName = strings.TrimSpace(in.TeamName)
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.College = strings.TrimSpace(in.College)
	in.Dept = strings.TrimSpace(in.Dept)
	in.Year = strings.TrimSpace(in.Year)
	in.Members = normalizeMembers(in.Members)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	exists, err := s.repoDB.UserExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check user exists", "username", in.Username, "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if exists {
		slog.WarnContext(ctx, "username or email already registered", "username", in.Username, "email", in.Email)
		return nil, errAlreadyRegistered
	}

	if err := s.ensureEmailVerified(ctx, in.Email); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(ctx, "password", in.Password)
	if err != nil {
		return nil, err
	}

	user := entity.NewUser{
		ID:       s.uid.Generate(),
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Profile: entity.Profile{
			Name:     in.Name,
			Phone:    in.Phone,
			TeamName: in.TeamName,
			College:  in.College,
			Dept:     in.Dept,
			Year:     in.Year,
			Members:  toMembers(in.Members),
		},
		Role: entity.RoleUser,
	}

	if err := s.repoDB.NewRegistration(ctx, user); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "registration raced on unique field", "username", in.Username, "email", in.Email)
			return nil, errAlreadyRegistered
		}
		slog.ErrorContext(ctx, "failed to repo new registration", "username", in.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishTeamRegistered(ctx, TeamRegisteredEvent{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Name:         user.Name,
		TeamName:     user.TeamName,
		College:      user.College,
		Members:      user.Members,
		RegisteredAt: s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish team registered", "user_id", user.ID, "error", err)
	}

	token, err := s.jwt.Generate(user.ID, user.Username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RegisterOutput{
		User: entity.User{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Profile:  user.Profile,
			Role:     user.Role,
		},
		Token: token,
	}, nil
}

// ensureEmailVerified requires a registration code for email that was verified
// recently enough, when the feature is switched on.
func (s *Usecase) ensureEmailVerified(ctx context.Context, email string) error {
	if !s.cfg.GetBool("modules.identity.require_verified_email") {
		return nil
	}

	errNotVerified := goerror.NewBusiness("Email not verified", goerror.CodeForbidden)

	ro, err := s.repoDB.GetRegistrationOTP(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "register without registration otp", "email", email)
		return errNotVerified
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get registration otp", "email", email, "error", err)
		return goerror.NewServer(err)
	}

	if ro.VerifiedAt == nil {
		slog.WarnContext(ctx, "register with unverified email", "email", email)
		return errNotVerified
	}

	ttl := s.minutes("modules.identity.verified_email_ttl_minutes", defaultVerifiedEmailTTL)
	if !s.clock.Now().Before(ro.VerifiedAt.Add(ttl)) {
		slog.WarnContext(ctx, "email verification is stale", "email", email, "verified_at", ro.VerifiedAt)
		return errNotVerified
	}

	return nil
}

// normalizeMembers trims every field and drops members left entirely blank,
// which is how an unused member slot arrives from the form.
func normalizeMembers(in []MemberInput) []MemberInput {
	out := make([]MemberInput, 0, len(in))
	for _, m := range in {
		m.Name = strings.TrimSpace(m.Name)
		m.Email = strings.TrimSpace(strings.ToLower(m.Email))
		m.Phone = strings.TrimSpace(m.Phone)
		m.College = strings.TrimSpace(m.College)
		m.Dept = strings.TrimSpace(m.Dept)
		m.Year = strings.TrimSpace(m.Year)
		if m == (MemberInput{}) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func toMembers(in []MemberInput) []entity.Member {
	out := make([]entity.Member, 0, len(in))
	for _, m := range in {
		out = append(out, entity.Member(m))
	}
	return out
}
