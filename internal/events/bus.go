package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Scope      string    `json:"scope"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(name, scope string) Event {
	return Event{
		ID:         uuid.New().String(),
		Name:       name,
		Scope:      scope,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler reacts to an event. Delivery is fire-and-forget: handlers should
// re-read whatever state they need instead of trusting the event.
type Handler func(ctx context.Context, event Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a process-local publish/subscribe dispatcher. Handlers run on the
// publisher's goroutine in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

func (b *Bus) Subscribe(name string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, id) })
	}
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[name]) == 0 {
		delete(b.subs, name)
	}
}

func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[event.Name]))
	copy(subs, b.subs[event.Name])
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(ctx, event)
	}
}
