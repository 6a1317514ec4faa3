package journal

import (
	"context"
	"sync"
	"time"

	"github.com/ariporad/warmup-project/pkg/api"
)

// MemoryStore is a goroutine-safe, non-durable Store backed by a slice.
// Best for tests and short-lived runs.
type MemoryStore struct {
	mu     sync.RWMutex
	events []api.Event
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) AppendEvent(ctx context.Context, ev api.Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
	return nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, session string) ([]api.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []api.Event
	for _, ev := range s.events {
		if session != "" && ev.Session != session {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
