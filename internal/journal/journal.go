// Package journal provides an append-only record of harness events
// (activations, transitions, published commands) for audit and post-run
// debugging.
package journal

import (
	"context"

	"github.com/ariporad/warmup-project/pkg/api"
)

// Store is an append-only history store for harness events.
type Store interface {
	AppendEvent(ctx context.Context, ev api.Event) error
	ListEvents(ctx context.Context, session string) ([]api.Event, error)
}

// NoopStore discards all events.
type NoopStore struct{}

func (NoopStore) AppendEvent(ctx context.Context, ev api.Event) error { return nil }
func (NoopStore) ListEvents(ctx context.Context, session string) ([]api.Event, error) {
	return nil, nil
}
