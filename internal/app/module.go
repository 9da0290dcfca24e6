package app

import (
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/datasprint/internal/identity"
	"github.com/shandysiswandi/datasprint/internal/notification"
)

func (a *App) initModules() error {
	if a.config.GetBool("modules.identity.enabled") {
		if _, err := identity.New(identity.Dependency{
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			Bcrypt:      a.bcrypt,
			HMAC:        a.hmac,
			Clock:       a.clock,
			Validator:   a.validator,
			Router:      a.router,
			OTP:         a.otp,
			DBConn:      a.dbConn,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Mail:        a.mail,
			Storage:     a.storage,
			Goroutine:   a.goroutine,
			JWT:         a.jwt,
			Enforcer:    a.enforcer,
		}); err != nil {
			return fmt.Errorf("identity: %w", err)
		}
		slog.Info("module enabled", "module", "identity")
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			return fmt.Errorf("notification: %w", err)
		}
		slog.Info("module enabled", "module", "notification")
	}

	return nil
}
