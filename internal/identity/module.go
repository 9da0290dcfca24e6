package identity

import (
	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/datasprint/internal/identity/inbound"
	"github.com/shandysiswandi/datasprint/internal/identity/outbound/db"
	"github.com/shandysiswandi/datasprint/internal/identity/outbound/email"
	"github.com/shandysiswandi/datasprint/internal/identity/outbound/mq"
	"github.com/shandysiswandi/datasprint/internal/identity/usecase"
	"github.com/shandysiswandi/datasprint/internal/pkg/clock"
	"github.com/shandysiswandi/datasprint/internal/pkg/config"
	"github.com/shandysiswandi/datasprint/internal/pkg/goroutine"
	"github.com/shandysiswandi/datasprint/internal/pkg/hash"
	"github.com/shandysiswandi/datasprint/internal/pkg/idempotency"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/jwt"
	"github.com/shandysiswandi/datasprint/internal/pkg/mail"
	"github.com/shandysiswandi/datasprint/internal/pkg/messaging"
	"github.com/shandysiswandi/datasprint/internal/pkg/otp"
	"github.com/shandysiswandi/datasprint/internal/pkg/router"
	"github.com/shandysiswandi/datasprint/internal/pkg/storage"
	"github.com/shandysiswandi/datasprint/internal/pkg/uid"
	"github.com/shandysiswandi/datasprint/internal/pkg/validator"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Enforcer    *casbin.Enforcer           `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Storage     storage.Storage            `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Bcrypt      hash.Hash                  `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	OTP         otp.OTP                    `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
}

// New wires the identity module and registers its HTTP routes. The returned
// usecase is shared with the admin CLI.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoMail:      email.New(dep.Mail, dep.Instrument),
		RepoStorage:   dep.Storage,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Bcrypt:        dep.Bcrypt,
		UID:           dep.UID,
		OTP:           dep.OTP,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
		Goroutine:     dep.Goroutine,
	})

	if dep.Router != nil {
		inbound.RegisterHTTPEndpoint(dep.Router, uc)
	}

	return uc, nil
}
