package memory

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/agentgraph/agentgraph/pkg/agentgraph/config"
)

// Backend creates the ConversationStore for a user on first access.
type Backend func(userID string) (ConversationStore, error)

// Stats reports aggregate factory usage.
// In the base design Users and Stores are always equal because each user
// owns exactly one store; Stores counts distinct instances so a backend
// that pools or shares stores still reports accurately.
type Stats struct {
	Users  int
	Stores int
}

// Factory maps user identifiers to ConversationStore instances.
// A store is created on first access and reused until evicted.
//
// The store map is the only resource shared across concurrent runs; the
// check-then-create sequence runs under a single mutex so concurrent
// CreateOrGet calls for the same unseen user resolve to one store.
//
// Pass a Factory instance explicitly into graph invocations (no package
// level singleton) so tests can substitute an isolated instance.
type Factory struct {
	mu      sync.Mutex
	stores  map[string]ConversationStore
	backend Backend
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithBackend sets the store constructor. Defaults to in-memory stores.
func WithBackend(b Backend) FactoryOption {
	return func(f *Factory) {
		f.backend = b
	}
}

// NewFactory creates a Factory with the given options.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		stores: make(map[string]ConversationStore),
		backend: func(string) (ConversationStore, error) {
			return NewInMemoryStore(), nil
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FromConfig builds a Factory from a configuration section.
//
// Keys:
//
//	backend: "memory" (default) or "sqlite"
//	path:    database file path, required for the sqlite backend
//
// The sqlite backend opens a shared database; close it by evicting all
// users and letting the process exit, or construct the backend directly
// via NewSQLiteBackend for explicit Close control.
func FromConfig(cfg config.Config) (*Factory, error) {
	switch backend := cfg.String("backend", "memory"); backend {
	case "memory":
		return NewFactory(), nil
	case "sqlite":
		path := cfg.String("path", "")
		if path == "" {
			return nil, fmt.Errorf("memory config: sqlite backend requires a path")
		}
		sb, err := NewSQLiteBackend(path)
		if err != nil {
			return nil, err
		}
		return NewFactory(WithBackend(sb.Backend())), nil
	default:
		return nil, fmt.Errorf("memory config: unknown backend %q", backend)
	}
}

// CreateOrGet returns the store for userID, creating it on first access.
// Lookups are idempotent: the same store is returned for the same key
// until it is evicted. An empty or blank userID fails with ErrInvalidKey.
func (f *Factory) CreateOrGet(userID string) (ConversationStore, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, userID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if store, ok := f.stores[userID]; ok {
		return store, nil
	}

	store, err := f.backend(userID)
	if err != nil {
		return nil, fmt.Errorf("create store for %q: %w", userID, err)
	}
	f.stores[userID] = store
	return store, nil
}

// Evict removes and discards the store for userID. It is a no-op when the
// user has no store. Stores that implement io.Closer are closed; close
// failures are ignored because the store is discarded either way.
func (f *Factory) Evict(userID string) {
	f.mu.Lock()
	store, ok := f.stores[userID]
	delete(f.stores, userID)
	f.mu.Unlock()

	if !ok {
		return
	}
	if c, ok := store.(io.Closer); ok {
		_ = c.Close()
	}
}

// Stats returns the current user and distinct store counts.
func (f *Factory) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	distinct := make(map[ConversationStore]struct{}, len(f.stores))
	for _, store := range f.stores {
		distinct[store] = struct{}{}
	}
	return Stats{
		Users:  len(f.stores),
		Stores: len(distinct),
	}
}
