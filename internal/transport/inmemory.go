package transport

import (
	"context"
	"errors"
	"sync"
	"time"
)

// InMemoryBus is a Bus implementation backed by a single buffered channel.
// Publishing is safe from any goroutine; delivery happens on the one
// goroutine that calls Run, which gives subscribers the serialized-callback
// guarantee the controller requires.
type InMemoryBus struct {
	ch chan Envelope

	mu       sync.RWMutex
	handlers map[string]Handler
	running  bool
}

// NewInMemoryBus creates a new bus with the given queue capacity.
// For tests and single-robot deployments, a modest capacity (e.g. 1024) is fine.
func NewInMemoryBus(capacity int) *InMemoryBus {
	if capacity <= 0 {
		capacity = 1024
	}
	return &InMemoryBus{
		ch:       make(chan Envelope, capacity),
		handlers: make(map[string]Handler),
	}
}

// Ensure InMemoryBus implements Bus.
var _ Bus = (*InMemoryBus)(nil)

func (b *InMemoryBus) Publish(ctx context.Context, channel string, msg any) error {
	e := Envelope{
		Channel:    channel,
		Message:    msg,
		EnqueuedAt: time.Now(),
	}
	select {
	case b.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *InMemoryBus) TryPublish(channel string, msg any) bool {
	e := Envelope{
		Channel:    channel,
		Message:    msg,
		EnqueuedAt: time.Now(),
	}
	select {
	case b.ch <- e:
		return true
	default:
		return false
	}
}

func (b *InMemoryBus) Subscribe(channel string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[channel] = h
}

func (b *InMemoryBus) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return errors.New("transport: bus already running")
	}
	b.running = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	for {
		select {
		case e := <-b.ch:
			h := b.handler(e.Channel)
			if h == nil {
				// No subscriber: latest-wins channels tolerate drops.
				continue
			}
			if err := h(ctx, e.Message); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// DeliverOne synchronously delivers a single message to the channel's
// handler, bypassing the queue. It exists for callers that drive delivery
// themselves (tests, lockstep simulations); Run is the normal path.
func (b *InMemoryBus) DeliverOne(ctx context.Context, channel string, msg any) error {
	h := b.handler(channel)
	if h == nil {
		return nil
	}
	return h(ctx, msg)
}

func (b *InMemoryBus) handler(channel string) Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handlers[channel]
}

func (b *InMemoryBus) Len() int {
	return len(b.ch)
}
