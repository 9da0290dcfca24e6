// Package mq publishes identity events for other modules.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shandysiswandi/datasprint/internal/identity/usecase"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/messaging"
	"github.com/shandysiswandi/datasprint/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

// publishTimeout bounds how long registration waits on a slow broker.
const publishTimeout = 3 * time.Second

type Messaging struct {
	client  messaging.Messaging
	ins     instrument.Instrumentation
	timeout time.Duration
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins, timeout: publishTimeout}
}

// PublishTeamRegistered is keyed by lead email so one team's events stay
// ordered on partitioned brokers. It gives up after the publish timeout.
func (m *Messaging) PublishTeamRegistered(ctx context.Context, ev usecase.TeamRegisteredEvent) (err error) {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishTeamRegistered")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(toTeamRegistered(ev))
	if err != nil {
		return fmt.Errorf("encode team registered: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	return m.client.Publish(ctx, event.TeamRegisteredDestination, messaging.Envelope{
		Key:     []byte(ev.Email),
		Body:    body,
		Headers: map[string]string{event.HeaderCorrelationID: instrument.GetCorrelationID(ctx)},
	})
}

func toTeamRegistered(ev usecase.TeamRegisteredEvent) event.TeamRegisteredMessage {
	out := event.TeamRegisteredMessage{
		UserID:       ev.UserID,
		Username:     ev.Username,
		Email:        ev.Email,
		Name:         ev.Name,
		TeamName:     ev.TeamName,
		College:      ev.College,
		Members:      make([]event.TeamRegisteredMember, len(ev.Members)),
		RegisteredAt: ev.RegisteredAt,
	}
	for i, mb := range ev.Members {
		out.Members[i] = event.TeamRegisteredMember{Name: mb.Name, Email: mb.Email}
	}
	return out
}
