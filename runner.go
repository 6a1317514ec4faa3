package robot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ariporad/warmup-project/internal/controller"
	"github.com/ariporad/warmup-project/internal/transport"
	"github.com/ariporad/warmup-project/pkg/params"
)

// RunOption customizes Runner construction.
type RunOption func(*runConfig)

type runConfig struct {
	name     string
	params   params.Source
	observer Observer
	logger   *slog.Logger
	reset    func(ctx context.Context) error
	failFast bool
	capacity int
}

// WithName sets the node name. The default is the initial state's name,
// derived from its type.
func WithName(name string) RunOption {
	return func(c *runConfig) {
		c.name = name
	}
}

// WithParams sets the configuration source parameters resolve through.
func WithParams(src params.Source) RunOption {
	return func(c *runConfig) {
		c.params = src
	}
}

// WithObserver replaces the default logging observer. Compose with
// NewCompositeObserver to keep logging alongside metrics or a Journal.
func WithObserver(obs Observer) RunOption {
	return func(c *runConfig) {
		c.observer = obs
	}
}

// WithLogger sets the logger used by the default observer and by the
// runner's own error reporting. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithEnvironmentReset requests a clean-slate environment: reset is invoked
// once at bootstrap, before the controller is constructed. An error aborts
// construction.
func WithEnvironmentReset(reset func(ctx context.Context) error) RunOption {
	return func(c *runConfig) {
		c.reset = reset
	}
}

// WithFailFast makes the event loop stop and return the first non-recoverable
// dispatch error instead of logging it and continuing.
func WithFailFast() RunOption {
	return func(c *runConfig) {
		c.failFast = true
	}
}

// WithQueueCapacity sets the bus queue capacity. The default (1024) is fine
// for a single robot.
func WithQueueCapacity(n int) RunOption {
	return func(c *runConfig) {
		c.capacity = n
	}
}

// Runner bundles an in-process bus and a controller, and pumps the event
// loop that delivers sensor messages to the active behavior state.
//
// Typical usage:
//
//	r, err := robot.NewRunner(&Wander{})
//	...
//	_ = r.Start(ctx)
//	_ = r.Publish(ctx, robot.ChannelOdometry, odom)
//	...
//	r.Stop()
type Runner struct {
	// Controller is the node driving the active behavior state.
	Controller Controller

	// Bus is the in-process transport carrying sensor and command messages.
	Bus transport.Bus

	node     *controller.Node
	bus      *transport.InMemoryBus
	logger   *slog.Logger
	failFast bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	err     error
}

// NewRunner constructs a Runner for the given initial state. If an
// environment reset was requested it runs first, before the controller is
// constructed; the controller then activates the initial state and
// subscribes to the sensor channels.
func NewRunner(initial BehaviorState, opts ...RunOption) (*Runner, error) {
	if initial == nil {
		return nil, errors.New("robot: initial state is required")
	}

	cfg := runConfig{
		name:   StateName(initial),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.reset != nil {
		if err := cfg.reset(context.Background()); err != nil {
			return nil, fmt.Errorf("robot: environment reset: %w", err)
		}
	}

	obs := cfg.observer
	if obs == nil {
		obs = NewLoggingObserver(cfg.logger)
	}

	bus := transport.NewInMemoryBus(cfg.capacity)
	node, err := controller.New(initial, controller.Config{
		Name:     cfg.name,
		Bus:      bus,
		Params:   cfg.params,
		Observer: obs,
	})
	if err != nil {
		return nil, err
	}

	return &Runner{
		Controller: node,
		Bus:        bus,
		node:       node,
		bus:        bus,
		logger:     cfg.logger,
		failFast:   cfg.failFast,
	}, nil
}

// Run blocks the calling goroutine, dispatching queued sensor events until
// ctx is cancelled. Context cancellation is a clean shutdown and returns nil.
//
// A behavior state failing with something other than DataNotReady reaches
// this loop; the default policy logs it and keeps pumping so a single bad
// update doesn't kill the robot, while WithFailFast returns it instead.
func (r *Runner) Run(ctx context.Context) error {
	for {
		err := r.bus.Run(ctx)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if r.failFast {
			return err
		}
		r.logger.Error("robot: dispatch failed, continuing", slog.Any("error", err))
	}
}

// Start runs the event loop on a background goroutine. It returns an error
// if the runner is already started.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("robot: runner already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.err = nil

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		err := r.Run(ctx)

		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
	}()

	return nil
}

// Stop cancels the event loop started by Start and waits for it to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// Err returns the error the event loop exited with, if any. Only meaningful
// after Stop, or after a WithFailFast loop has stopped on its own.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Publish enqueues a message on the given channel, exactly as an external
// transport would. Simulations and tests use this to inject sensor data.
func (r *Runner) Publish(ctx context.Context, channel string, msg any) error {
	return r.bus.Publish(ctx, channel, msg)
}

// PublishOdometry enqueues an odometry message.
func (r *Runner) PublishOdometry(ctx context.Context, odom Odometry) error {
	return r.bus.Publish(ctx, ChannelOdometry, odom)
}

// PublishPointCloud enqueues a point-cloud message.
func (r *Runner) PublishPointCloud(ctx context.Context, pc PointCloud) error {
	return r.bus.Publish(ctx, ChannelPointCloud, pc)
}

// Subscribe registers a handler for a channel, typically to observe the
// outbound "cmd_vel" and "target" channels.
func (r *Runner) Subscribe(channel string, h func(ctx context.Context, msg any) error) {
	r.bus.Subscribe(channel, h)
}

// Run constructs a node for state and blocks in the event loop until ctx is
// cancelled. It is the whole bootstrap in one call: derive the node name
// from the state when none is given, optionally reset the environment, wire
// the controller, and pump.
func Run(ctx context.Context, state BehaviorState, opts ...RunOption) error {
	r, err := NewRunner(state, opts...)
	if err != nil {
		return err
	}
	return r.Run(ctx)
}
