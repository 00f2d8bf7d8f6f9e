package kvstore

import "context"

// UpdateFunc receives the current value of a key and returns its replacement.
// Returning write=false leaves the key untouched.
type UpdateFunc func(current string, found bool) (next string, write bool, err error)

// Store is a string key-value store. Get reports a missing key with ok=false
// and a nil error. Update runs fn and stores its result as one step: no other
// Update on the same key can interleave.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Remove(ctx context.Context, key string) error
}

type prefixed struct {
	store  Store
	prefix string
}

// WithPrefix namespaces every key of store under prefix, so several sessions
// can share one backing table without seeing each other's entries.
func WithPrefix(store Store, prefix string) Store {
	return &prefixed{store: store, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.store.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return p.store.Update(ctx, p.prefix+key, fn)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.store.Remove(ctx, p.prefix+key)
}

// SessionPrefix is the key namespace used for a storefront session.
func SessionPrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}
