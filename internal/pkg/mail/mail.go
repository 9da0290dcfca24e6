// Package mail sends transactional email through a pluggable provider:
// "smtp", "brevo" (Brevo HTTP API) or "log" (slog only, for local runs).
package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	DriverSMTP  = "smtp"
	DriverBrevo = "brevo"
	DriverLog   = "log"
)

var (
	ErrUnknownDriver = errors.New("mail: unknown driver")
	ErrNoRecipients  = errors.New("mail: no recipients")
	ErrNoSender      = errors.New("mail: no sender configured")
)

// Message is provider agnostic. When both bodies are set, clients that
// render HTML show HTMLBody.
type Message struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Driver string
	SMTP   SMTPConfig
	Brevo  BrevoConfig
}

func New(cfg Config) (Mail, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverSMTP:
		return NewSMTP(cfg.SMTP)
	case DriverBrevo:
		return NewBrevo(cfg.Brevo)
	case DriverLog, "":
		return Log{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
