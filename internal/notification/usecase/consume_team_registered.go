package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

type ConsumeTeamRegisteredInput struct {
	UserID   int64    `validate:"required,gt=0"`
	Email    string   `validate:"required,email"`
	TeamName string   `validate:"required,max=128"`
	Members  []string `validate:"max=3"`
}

// ConsumeTeamRegistered mails the lead a registration confirmation. Invalid
// payloads are logged and swallowed so the broker does not redeliver them;
// only delivery failures are returned.
func (s *Usecase) ConsumeTeamRegistered(ctx context.Context, in ConsumeTeamRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeTeamRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "dropping invalid team registered event", "user_id", in.UserID, "error", err)
		return nil
	}

	if err := s.repoMail.SendTeamConfirmed(ctx, TeamConfirmedMail{
		To:        in.Email,
		TeamName:  in.TeamName,
		AuthID:    strings.ToUpper(strconv.FormatInt(in.UserID, 36)),
		Members:   in.Members,
		EventName: s.eventName(),
		Year:      s.clock.Now().Year(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send team confirmation", "user_id", in.UserID, "error", err)
		return err
	}

	return nil
}
