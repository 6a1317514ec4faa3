package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryBusDeliversInOrder(t *testing.T) {
	bus := NewInMemoryBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []int
	bus.Subscribe("numbers", func(ctx context.Context, msg any) error {
		got = append(got, msg.(int))
		return nil
	})

	for i := 0; i < 5; i++ {
		if err := bus.Publish(ctx, "numbers", i); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- bus.Run(ctx)
	}()

	waitFor(t, func() bool { return bus.Len() == 0 })
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from Run, got %v", err)
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("out-of-order delivery: %v", got)
		}
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 deliveries, got %d", len(got))
	}
}

func TestInMemoryBusHandlerErrorStopsRun(t *testing.T) {
	bus := NewInMemoryBus(16)
	ctx := context.Background()

	boom := errors.New("boom")
	bus.Subscribe("ch", func(ctx context.Context, msg any) error {
		return boom
	})

	if err := bus.Publish(ctx, "ch", "payload"); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if err := bus.Run(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected handler error from Run, got %v", err)
	}
}

func TestInMemoryBusDropsUnsubscribedChannels(t *testing.T) {
	bus := NewInMemoryBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var delivered int
	bus.Subscribe("known", func(ctx context.Context, msg any) error {
		delivered++
		return nil
	})

	if err := bus.Publish(ctx, "unknown", 1); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := bus.Publish(ctx, "known", 2); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	go func() {
		waitForCond(func() bool { return bus.Len() == 0 })
		cancel()
	}()
	_ = bus.Run(ctx)

	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
}

func TestInMemoryBusTryPublish(t *testing.T) {
	bus := NewInMemoryBus(1)

	if !bus.TryPublish("ch", 1) {
		t.Fatalf("expected TryPublish to accept into empty queue")
	}
	if bus.TryPublish("ch", 2) {
		t.Fatalf("expected TryPublish to drop when queue is full")
	}
	if bus.Len() != 1 {
		t.Fatalf("expected 1 queued message, got %d", bus.Len())
	}
}

func TestInMemoryBusRejectsDoubleRun(t *testing.T) {
	bus := NewInMemoryBus(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = bus.Run(ctx) }()
	waitFor(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return bus.running
	})

	if err := bus.Run(ctx); err == nil {
		t.Fatalf("expected second Run to fail while the first is active")
	}
}

func TestInMemoryBusDeliverOne(t *testing.T) {
	bus := NewInMemoryBus(1)

	var got any
	bus.Subscribe("ch", func(ctx context.Context, msg any) error {
		got = msg
		return nil
	})

	if err := bus.DeliverOne(context.Background(), "ch", "direct"); err != nil {
		t.Fatalf("DeliverOne failed: %v", err)
	}
	if got != "direct" {
		t.Fatalf("expected synchronous delivery, got %v", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func waitForCond(cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
}
