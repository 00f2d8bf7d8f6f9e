package badge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/compare"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/events"
	"github.com/joao-fontenele/storefront/internal/kvstore"
)

type sizes struct {
	values []int
}

func (s *sizes) RecordCompareListSize(_ context.Context, size int) {
	s.values = append(s.values, size)
}

func payload(t *testing.T, event events.Event) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return data
}

func TestProjector_Handle(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("re-reads the session list", func(t *testing.T) {
		store := kvstore.NewMemory()
		rec := &sizes{}
		projector := NewProjector(store, rec, logger)

		manager := compare.NewManager(kvstore.WithPrefix(store, kvstore.SessionPrefix("s1")), nil)
		manager.Add(ctx, 1)
		manager.Add(ctx, 2)

		err := projector.Handle(ctx, payload(t, events.New(domain.CompareListUpdatedEvent, "s1")))
		require.NoError(t, err)

		assert.Equal(t, 2, projector.Count("s1"))
		assert.Equal(t, []int{2}, rec.values)
	})

	t.Run("stale event still reflects current state", func(t *testing.T) {
		store := kvstore.NewMemory()
		projector := NewProjector(store, nil, logger)
		manager := compare.NewManager(kvstore.WithPrefix(store, kvstore.SessionPrefix("s1")), nil)

		manager.Add(ctx, 1)
		stale := payload(t, events.New(domain.CompareListUpdatedEvent, "s1"))
		manager.Clear(ctx)

		require.NoError(t, projector.Handle(ctx, stale))
		assert.Equal(t, 0, projector.Count("s1"))
	})

	t.Run("ignores other events", func(t *testing.T) {
		rec := &sizes{}
		projector := NewProjector(kvstore.NewMemory(), rec, logger)

		require.NoError(t, projector.Handle(ctx, payload(t, events.New("cart-updated", "s1"))))
		assert.Empty(t, rec.values)
	})

	t.Run("skips malformed payloads", func(t *testing.T) {
		projector := NewProjector(kvstore.NewMemory(), nil, logger)
		assert.NoError(t, projector.Handle(ctx, []byte("{")))
	})

	t.Run("skips events without scope", func(t *testing.T) {
		rec := &sizes{}
		projector := NewProjector(kvstore.NewMemory(), rec, logger)

		err := projector.Handle(ctx, payload(t, events.New(domain.CompareListUpdatedEvent, "")))

		assert.NoError(t, err)
		assert.Empty(t, rec.values)
	})

	t.Run("store outage is retried and keeps the last count", func(t *testing.T) {
		memory := kvstore.NewMemory()
		store := &flakyStore{Store: memory}
		rec := &sizes{}
		projector := NewProjector(store, rec, logger)

		manager := compare.NewManager(kvstore.WithPrefix(memory, kvstore.SessionPrefix("s1")), nil)
		manager.Add(ctx, 1)
		manager.Add(ctx, 2)

		event := payload(t, events.New(domain.CompareListUpdatedEvent, "s1"))
		require.NoError(t, projector.Handle(ctx, event))

		store.err = errors.New("connection refused")
		err := projector.Handle(ctx, event)

		require.ErrorIs(t, err, store.err)
		assert.Equal(t, 2, projector.Count("s1"))
		assert.Equal(t, []int{2}, rec.values)
	})
}

type flakyStore struct {
	kvstore.Store
	err error
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	return s.Store.Get(ctx, key)
}
