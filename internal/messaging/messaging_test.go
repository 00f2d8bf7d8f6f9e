package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront/internal/events"
)

func TestHeaderCarrier(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "existing", Value: []byte("1")}}}
	carrier := carrierFor(&msg)

	carrier.Set("traceparent", "a")
	carrier.Set("existing", "2")

	assert.Equal(t, "a", carrier.Get("traceparent"))
	assert.Equal(t, "2", carrier.Get("existing"))
	assert.Empty(t, carrier.Get("missing"))
	assert.ElementsMatch(t, []string{"existing", "traceparent"}, carrier.Keys())
	assert.Len(t, msg.Headers, 2)
}

func TestHeaderCarrier_PropagatesTraceContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	var msg kafka.Message
	prop := propagation.TraceContext{}
	prop.Inject(ctx, carrierFor(&msg))
	require.NotEmpty(t, msg.Headers)

	extracted := prop.Extract(context.Background(), carrierFor(&msg))
	assert.Equal(t, span.SpanContext().TraceID(), traceIDFrom(extracted))
}

type fakePublisher struct {
	keys   []string
	events []any
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, key string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return nil
}

func TestForwarder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("publishes keyed by scope", func(t *testing.T) {
		pub := &fakePublisher{}
		fwd := NewForwarder(pub, logger)

		event := events.New("compare-list-updated", "session-1")
		fwd.Handle(context.Background(), event)

		assert.Equal(t, []string{"session-1"}, pub.keys)
		assert.Equal(t, []any{event}, pub.events)
	})

	t.Run("swallows publish errors", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker down")}
		fwd := NewForwarder(pub, logger)

		assert.NotPanics(t, func() {
			fwd.Handle(context.Background(), events.New("compare-list-updated", "s"))
		})
	})

	t.Run("subscribed to bus", func(t *testing.T) {
		pub := &fakePublisher{}
		bus := events.NewBus()
		bus.Subscribe("compare-list-updated", NewForwarder(pub, logger).Handle)

		bus.Publish(context.Background(), events.New("compare-list-updated", "s1"))
		bus.Publish(context.Background(), events.New("other", "s2"))

		assert.Equal(t, []string{"s1"}, pub.keys)
	})
}

func traceIDFrom(ctx context.Context) trace.TraceID {
	return trace.SpanContextFromContext(ctx).TraceID()
}
