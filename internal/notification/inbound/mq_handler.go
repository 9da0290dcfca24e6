package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/datasprint/internal/notification/usecase"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/messaging"
	"github.com/shandysiswandi/datasprint/internal/pkg/uid"
	"github.com/shandysiswandi/datasprint/internal/shared/event"
)

type teamRegisteredConsumer interface {
	ConsumeTeamRegistered(ctx context.Context, in usecase.ConsumeTeamRegisteredInput) error
}

type MQHandler struct {
	uc   teamRegisteredConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) withCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(event.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) TeamRegisteredNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.withCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "TeamRegisteredNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: team registered notification", "msg_id", msg.ID())

	var payload event.TeamRegisteredMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of team registered notification", "msg_body", string(body), "error", err)
		return nil
	}

	members := make([]string, 0, len(payload.Members))
	for _, m := range payload.Members {
		members = append(members, m.Name)
	}

	if err := h.uc.ConsumeTeamRegistered(ctx, usecase.ConsumeTeamRegisteredInput{
		UserID:   payload.UserID,
		Email:    payload.Email,
		TeamName: payload.TeamName,
		Members:  members,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume team registered", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
