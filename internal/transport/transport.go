package transport

import (
	"context"
	"time"
)

// Envelope carries one message on a named channel.
type Envelope struct {
	Channel string
	Message any

	EnqueuedAt time.Time
}

// Handler consumes messages delivered on a subscribed channel.
//
// Handlers run on the bus's single delivery goroutine: invocations are
// strictly serialized, never concurrent. A handler error stops the pump and
// is returned from Run; handler policy (crash, log-and-continue) belongs to
// the caller of Run.
type Handler func(ctx context.Context, msg any) error

// Bus is a minimal in-process publish/subscribe transport.
type Bus interface {
	// Publish enqueues a message on the given channel. It should respect ctx
	// for cancellation. Messages to channels without a subscriber are
	// delivered to no one and dropped at dispatch time.
	Publish(ctx context.Context, channel string, msg any) error

	// TryPublish enqueues a message without blocking and reports whether it
	// was accepted. Outbound actuation uses this so a saturated queue can
	// never stall the dispatch path; latest-wins channels tolerate the drop.
	TryPublish(channel string, msg any) bool

	// Subscribe registers the handler for a channel. One handler per channel;
	// subscribing again replaces the previous handler. Subscriptions must be
	// registered before Run starts delivering.
	Subscribe(channel string, h Handler)

	// Run blocks, delivering queued messages to subscribed handlers in
	// enqueue order until ctx is cancelled or a handler returns an error.
	Run(ctx context.Context) error

	// Len returns the approximate number of undelivered messages.
	Len() int
}
