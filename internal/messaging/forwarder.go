package messaging

import (
	"context"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/events"
)

type publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Forwarder copies in-process bus events to Kafka so other services can react
// to compare list changes.
type Forwarder struct {
	producer publisher
	logger   *slog.Logger
}

func NewForwarder(producer publisher, logger *slog.Logger) *Forwarder {
	return &Forwarder{producer: producer, logger: logger}
}

// Handle satisfies events.Handler. Publish failures are logged and dropped.
func (f *Forwarder) Handle(ctx context.Context, event events.Event) {
	if err := f.producer.Publish(context.WithoutCancel(ctx), event.Scope, event); err != nil {
		f.logger.Error("failed to forward event", "error", err, "event", event.Name, "event_id", event.ID)
		return
	}
	f.logger.Debug("event forwarded", "event", event.Name, "event_id", event.ID, "scope", event.Scope)
}
