// Package usecase holds notification flows triggered by events from other
// modules.
package usecase

import (
	"context"

	"github.com/shandysiswandi/datasprint/internal/pkg/clock"
	"github.com/shandysiswandi/datasprint/internal/pkg/config"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const defaultEventName = "Data Sprint 3.0"

// TeamConfirmedMail is everything the confirmation mail shows.
type TeamConfirmedMail struct {
	To        string
	TeamName  string
	AuthID    string
	Members   []string
	EventName string
	Year      int
}

type repoMail interface {
	SendTeamConfirmed(ctx context.Context, in TeamConfirmedMail) error
}

type Usecase struct {
	repoMail  repoMail
	cfg       config.Config
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoMail   repoMail
	Config     config.Config
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:  dep.RepoMail,
		cfg:       dep.Config,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) eventName() string {
	if name := s.cfg.GetString("modules.notification.event_name"); name != "" {
		return name
	}
	return defaultEventName
}
