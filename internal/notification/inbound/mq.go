package inbound

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/bankvault/internal/pkg/config"
	"github.com/shandysiswandi/bankvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/bankvault/internal/pkg/instrument"
	"github.com/shandysiswandi/bankvault/internal/pkg/messaging"
	"github.com/shandysiswandi/bankvault/internal/pkg/uid"
	"github.com/shandysiswandi/bankvault/internal/shared/event"
)

// RegisterMQConsumer starts one goroutine per enabled consumer. An empty
// modules.notification.consumer_names enables all of them.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.concurrency")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string // nats queue group / kafka consumer group
		handler messaging.Handler
	}{
		{
			name:    event.DisclosureCodeRequestedConsumerNotification,
			topic:   event.DisclosureCodeRequestedDestination,
			group:   event.DisclosureCodeRequestedConsumerNotification,
			handler: mqHandler.DisclosureCodeRequested,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}
		routine.Go(ctx, consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			err := messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.group),
				messaging.WithConcurrency(concurrency),
			)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
}
