package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/datasprint/internal/pkg/config"
	"github.com/shandysiswandi/datasprint/internal/pkg/goroutine"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/messaging"
	"github.com/shandysiswandi/datasprint/internal/pkg/uid"
	"github.com/shandysiswandi/datasprint/internal/shared/event"
)

type consumer struct {
	group       string
	topic       string
	concurrency int
	handler     messaging.Handler
}

// RegisterMQConsumer starts every consumer listed in
// modules.notification.consumer_names on the goroutine manager.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc teamRegisteredConsumer,
	ins instrument.Instrumentation,
) {
	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}
	enabled := cfg.GetArray("modules.notification.consumer_names")

	consumers := []consumer{
		{
			group:       event.TeamRegisteredConsumerNotification,
			topic:       event.TeamRegisteredDestination,
			concurrency: 4,
			handler:     h.TeamRegisteredNotification,
		},
	}

	for _, c := range consumers {
		if !slices.Contains(enabled, c.group) {
			slog.InfoContext(ctx, "consumer disabled", "consumer", c.group)
			continue
		}

		routine.Go(ctx, func(ctx context.Context) error {
			slog.InfoContext(ctx, "starting consumer", "consumer", c.group, "topic", c.topic)
			return messenger.Consume(ctx, c.topic, c.handler,
				messaging.WithGroup(c.group),
				messaging.WithConcurrency(c.concurrency),
				messaging.WithMaxInFlight(c.concurrency*2),
			)
		})
	}
}
