package events

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	event := New("compare-list-updated", "session-1")

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "compare-list-updated", event.Name)
	assert.Equal(t, "session-1", event.Scope)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestBus(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers only to matching subscribers in order", func(t *testing.T) {
		bus := NewBus()
		var got []string

		bus.Subscribe("a", func(_ context.Context, e Event) { got = append(got, "first:"+e.Scope) })
		bus.Subscribe("a", func(_ context.Context, e Event) { got = append(got, "second:"+e.Scope) })
		bus.Subscribe("b", func(_ context.Context, e Event) { got = append(got, "other:"+e.Scope) })

		bus.Publish(ctx, New("a", "s1"))

		assert.Equal(t, []string{"first:s1", "second:s1"}, got)
	})

	t.Run("publish without subscribers is a no-op", func(t *testing.T) {
		bus := NewBus()
		assert.NotPanics(t, func() { bus.Publish(ctx, New("nobody", "")) })
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := NewBus()
		calls := 0

		unsubscribe := bus.Subscribe("a", func(context.Context, Event) { calls++ })
		bus.Publish(ctx, New("a", ""))
		unsubscribe()
		unsubscribe()
		bus.Publish(ctx, New("a", ""))

		assert.Equal(t, 1, calls)
	})

	t.Run("handler may unsubscribe itself", func(t *testing.T) {
		bus := NewBus()
		calls := 0

		var unsubscribe func()
		unsubscribe = bus.Subscribe("a", func(context.Context, Event) {
			calls++
			unsubscribe()
		})

		bus.Publish(ctx, New("a", ""))
		bus.Publish(ctx, New("a", ""))

		assert.Equal(t, 1, calls)
	})

	t.Run("concurrent publishers", func(t *testing.T) {
		bus := NewBus()
		var mu sync.Mutex
		calls := 0
		bus.Subscribe("a", func(context.Context, Event) {
			mu.Lock()
			calls++
			mu.Unlock()
		})

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				bus.Publish(ctx, New("a", ""))
			}()
		}
		wg.Wait()

		assert.Equal(t, 20, calls)
	})
}
