package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/events"
	"github.com/joao-fontenele/storefront/internal/kvstore"
)

type Reason string

const (
	ReasonNone             Reason = ""
	ReasonAlreadyInList    Reason = "already_in_list"
	ReasonListFull         Reason = "list_full"
	ReasonStoreUnavailable Reason = "store_unavailable"
)

// Result is what every mutating operation returns. Failures are reported here
// rather than as errors so callers can show Message directly.
type Result struct {
	Success bool   `json:"success"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}

type Recorder interface {
	RecordCompareOperation(ctx context.Context, op, outcome string)
}

type Option func(*Manager)

// WithScope sets the scope carried on change events, usually the session id.
func WithScope(scope string) Option {
	return func(m *Manager) {
		m.scope = scope
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(m *Manager) {
		m.recorder = recorder
	}
}

// Manager keeps a bounded, insertion-ordered list of product ids in a
// key-value store. A nil publisher disables change notifications.
type Manager struct {
	store     kvstore.Store
	publisher Publisher
	recorder  Recorder
	logger    *slog.Logger
	scope     string
	max       int
}

func NewManager(store kvstore.Store, publisher Publisher, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		publisher: publisher,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		max:       domain.CompareListMax,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) Add(ctx context.Context, productID int64) Result {
	return m.mutate(ctx, "add", func(ids []int64) ([]int64, Result) {
		if slices.Contains(ids, productID) {
			return ids, Result{
				Reason:  ReasonAlreadyInList,
				Message: "Product is already in the compare list",
				Count:   len(ids),
			}
		}

		if len(ids) >= m.max {
			return ids, Result{
				Reason:  ReasonListFull,
				Message: fmt.Sprintf("Compare list is full (max %d). Remove a product first", m.max),
				Count:   len(ids),
			}
		}

		ids = append(ids, productID)
		return ids, Result{
			Success: true,
			Message: fmt.Sprintf("Added to compare list (%d/%d)", len(ids), m.max),
			Count:   len(ids),
		}
	})
}

func (m *Manager) Remove(ctx context.Context, productID int64) Result {
	return m.mutate(ctx, "remove", func(ids []int64) ([]int64, Result) {
		ids = slices.DeleteFunc(ids, func(id int64) bool { return id == productID })
		return ids, Result{
			Success: true,
			Message: fmt.Sprintf("Removed from compare list (%d/%d)", len(ids), m.max),
			Count:   len(ids),
		}
	})
}

func (m *Manager) Clear(ctx context.Context) Result {
	if err := m.store.Remove(ctx, domain.CompareListKey); err != nil {
		return m.unavailable(ctx, "clear", err)
	}
	m.notify(ctx)

	return m.finish(ctx, "clear", Result{
		Success: true,
		Message: "Compare list cleared",
	})
}

// Read returns the stored ids in insertion order, or the store's error.
func (m *Manager) Read(ctx context.Context) ([]int64, error) {
	raw, ok, err := m.store.Get(ctx, domain.CompareListKey)
	if err != nil {
		return nil, err
	}
	return m.decode(raw, ok), nil
}

// Items is Read with store failures reported as an empty list.
func (m *Manager) Items(ctx context.Context) []int64 {
	ids, err := m.Read(ctx)
	if err != nil {
		m.logger.Warn("failed to read compare list", "error", err, "scope", m.scope)
		return []int64{}
	}
	return ids
}

func (m *Manager) Contains(ctx context.Context, productID int64) bool {
	return slices.Contains(m.Items(ctx), productID)
}

func (m *Manager) Count(ctx context.Context) int {
	return len(m.Items(ctx))
}

func (m *Manager) IsFull(ctx context.Context) bool {
	return m.Count(ctx) >= m.max
}

func (m *Manager) RemainingSlots(ctx context.Context) int {
	return max(m.max-m.Count(ctx), 0)
}

func (m *Manager) Snapshot(ctx context.Context) domain.CompareList {
	ids := m.Items(ctx)
	return domain.CompareList{
		Items:          ids,
		Count:          len(ids),
		Max:            m.max,
		RemainingSlots: max(m.max-len(ids), 0),
		Full:           len(ids) >= m.max,
	}
}

func (m *Manager) decode(raw string, found bool) []int64 {
	if !found || raw == "" {
		return []int64{}
	}

	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		m.logger.Warn("discarding corrupt compare list", "error", err, "scope", m.scope)
		return []int64{}
	}

	// Stored lists are trusted only up to the first max distinct ids.
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if len(out) == m.max {
			break
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// mutate applies change to the stored list inside a single store update, so
// concurrent requests for one session never overwrite each other. Only
// successful results are written and announced.
func (m *Manager) mutate(ctx context.Context, op string, change func(ids []int64) ([]int64, Result)) Result {
	var result Result
	err := m.store.Update(ctx, domain.CompareListKey, func(current string, found bool) (string, bool, error) {
		var ids []int64
		ids, result = change(m.decode(current, found))
		if !result.Success {
			return "", false, nil
		}

		data, err := json.Marshal(ids)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	})
	if err != nil {
		return m.unavailable(ctx, op, err)
	}

	if result.Success {
		m.notify(ctx)
	}
	return m.finish(ctx, op, result)
}

func (m *Manager) notify(ctx context.Context) {
	if m.publisher != nil {
		m.publisher.Publish(ctx, events.New(domain.CompareListUpdatedEvent, m.scope))
	}
}

func (m *Manager) unavailable(ctx context.Context, op string, err error) Result {
	m.logger.Error("compare list store unavailable", "error", err, "op", op, "scope", m.scope)
	return m.finish(ctx, op, Result{
		Reason:  ReasonStoreUnavailable,
		Message: "Compare list is unavailable, please try again",
		Count:   0,
	})
}

func (m *Manager) finish(ctx context.Context, op string, result Result) Result {
	if m.recorder != nil {
		outcome := string(result.Reason)
		if result.Success {
			outcome = "ok"
		}
		m.recorder.RecordCompareOperation(ctx, op, outcome)
	}
	return result
}
