// Package app assembles the DATASPRINT service from config and runs it.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
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

type closer struct {
	name string
	fn   func(context.Context) error
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config config.Config
	ins    instrument.Instrumentation

	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	otp       otp.OTP
	jwt       jwt.JWT

	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage
	enforcer  *casbin.Enforcer

	router     *router.Router
	httpServer *http.Server

	// closers run in reverse registration order on Stop.
	closers []closer
}

// New builds every dependency in order and exits the process on the first
// failure, since the service cannot run half wired.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{ctx: ctx, cancel: cancel}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"config", a.initConfig},
		{"instrument", a.initInstrument},
		{"libraries", a.initLibraries},
		{"jwt", a.initJWT},
		{"database", a.initDatabase},
		{"cache", a.initCache},
		{"mail", a.initMail},
		{"storage", a.initStorage},
		{"messaging", a.initMessaging},
		{"casbin", a.initCasbin},
		{"http server", a.initHTTPServer},
		{"modules", a.initModules},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			slog.Error("failed to init "+step.name, "error", err)
			os.Exit(1)
		}
	}

	return a
}

func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
