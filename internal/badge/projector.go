package badge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/compare"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/events"
	"github.com/joao-fontenele/storefront/internal/kvstore"
)

type SizeRecorder interface {
	RecordCompareListSize(ctx context.Context, size int)
}

// Projector keeps the compare badge count in sync with compare list change
// events. Events carry no state, so every event triggers a re-read of the
// session's list from the shared store.
type Projector struct {
	store    kvstore.Store
	recorder SizeRecorder
	logger   *slog.Logger
	counts   map[string]int
}

func NewProjector(store kvstore.Store, recorder SizeRecorder, logger *slog.Logger) *Projector {
	return &Projector{
		store:    store,
		recorder: recorder,
		logger:   logger,
		counts:   make(map[string]int),
	}
}

func (p *Projector) Handle(ctx context.Context, payload []byte) error {
	var event events.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		p.logger.Warn("skipping malformed event", "error", err)
		return nil
	}

	if event.Name != domain.CompareListUpdatedEvent {
		p.logger.Debug("ignoring event", "event", event.Name, "event_id", event.ID)
		return nil
	}

	if event.Scope == "" {
		p.logger.Warn("skipping event without scope", "event", event.Name, "event_id", event.ID)
		return nil
	}

	manager := compare.NewManager(
		kvstore.WithPrefix(p.store, kvstore.SessionPrefix(event.Scope)),
		nil,
		compare.WithScope(event.Scope),
		compare.WithLogger(p.logger),
	)
	// Read errors leave the message uncommitted so it is retried.
	ids, err := manager.Read(ctx)
	if err != nil {
		return fmt.Errorf("read compare list for %s: %w", event.Scope, err)
	}
	count := len(ids)

	previous, seen := p.counts[event.Scope]
	p.counts[event.Scope] = count
	if count == 0 {
		delete(p.counts, event.Scope)
	}

	if p.recorder != nil {
		p.recorder.RecordCompareListSize(ctx, count)
	}

	p.logger.Info("compare badge updated",
		"session_id", event.Scope,
		"event_id", event.ID,
		"count", count,
		"previous", previous,
		"first_seen", !seen,
	)
	return nil
}

// Count returns the last projected badge count for a session.
func (p *Projector) Count(sessionID string) int {
	return p.counts[sessionID]
}
