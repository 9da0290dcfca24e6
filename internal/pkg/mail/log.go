package mail

import (
	"context"
	"log/slog"
)

// Log writes messages to slog instead of delivering them.
type Log struct{}

func (Log) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	slog.InfoContext(ctx, "mail not delivered, log driver", "to", msg.To, "subject", msg.Subject, "text", msg.TextBody)
	return nil
}

func (Log) Close() error { return nil }
