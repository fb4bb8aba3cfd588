package memory

import (
	"sync"
)

// InMemoryStore is a volatile ConversationStore backed by a process-local
// slice. It is safe for concurrent use. Data is lost when the process exits.
type InMemoryStore struct {
	mu   sync.RWMutex
	msgs []Message
}

// Compile-time interface check.
var _ ConversationStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append implements ConversationStore.
func (s *InMemoryStore) Append(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = append(s.msgs, msg)
	return nil
}

// Messages implements ConversationStore.
// The returned slice is a copy; callers may not mutate stored messages.
func (s *InMemoryStore) Messages() ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out, nil
}

// Clear implements ConversationStore.
func (s *InMemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = nil
	return nil
}

// Len returns the number of stored messages. Useful for testing.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.msgs)
}
