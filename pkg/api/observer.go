package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the harness for logging, metrics, and
// journaling.
//
// Implementations should be fast and non-blocking; all callbacks run on the
// event-dispatch goroutine, so heavy work delays sensor processing.
type Observer interface {
	// OnActivate is called after a state has been activated, including the
	// initial state at controller construction.
	OnActivate(ctx context.Context, state string)

	// OnDeactivate is called after a state has been deactivated.
	OnDeactivate(ctx context.Context, state string)

	// OnTransition is called once per Transition, after the new state is
	// active.
	OnTransition(ctx context.Context, from, to string)

	// OnDispatch is called after every Update invocation. channel names the
	// sensor arrival that triggered the dispatch. err is nil on success, a
	// DataNotReady error on the designed "not yet" path, or the state's
	// failure otherwise.
	OnDispatch(ctx context.Context, state, channel string, err error, duration time.Duration)

	// OnCommand is called for every published velocity command, after
	// non-finite sanitization.
	OnCommand(ctx context.Context, cmd Twist)

	// OnMarker is called for every published visualization marker.
	OnMarker(ctx context.Context, m Marker)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnActivate(ctx context.Context, state string)      {}
func (NoopObserver) OnDeactivate(ctx context.Context, state string)    {}
func (NoopObserver) OnTransition(ctx context.Context, from, to string) {}
func (NoopObserver) OnCommand(ctx context.Context, cmd Twist)          {}
func (NoopObserver) OnMarker(ctx context.Context, m Marker)            {}
func (NoopObserver) OnDispatch(ctx context.Context, state, channel string, err error, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnActivate(ctx context.Context, state string) {
	for _, o := range c.observers {
		o.OnActivate(ctx, state)
	}
}

func (c *CompositeObserver) OnDeactivate(ctx context.Context, state string) {
	for _, o := range c.observers {
		o.OnDeactivate(ctx, state)
	}
}

func (c *CompositeObserver) OnTransition(ctx context.Context, from, to string) {
	for _, o := range c.observers {
		o.OnTransition(ctx, from, to)
	}
}

func (c *CompositeObserver) OnDispatch(ctx context.Context, state, channel string, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnDispatch(ctx, state, channel, err, d)
	}
}

func (c *CompositeObserver) OnCommand(ctx context.Context, cmd Twist) {
	for _, o := range c.observers {
		o.OnCommand(ctx, cmd)
	}
}

func (c *CompositeObserver) OnMarker(ctx context.Context, m Marker) {
	for _, o := range c.observers {
		o.OnMarker(ctx, m)
	}
}

// LoggingObserver writes structured logs using log/slog.
//
// Transitions are announced at Info level. A DataNotReady dispatch produces
// no log line at all: it is an expected startup condition, not an error.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs harness lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnActivate(ctx context.Context, state string) {
	o.Logger.DebugContext(ctx, "state_activated",
		slog.String("state", state),
	)
}

func (o *LoggingObserver) OnDeactivate(ctx context.Context, state string) {
	o.Logger.DebugContext(ctx, "state_deactivated",
		slog.String("state", state),
	)
}

func (o *LoggingObserver) OnTransition(ctx context.Context, from, to string) {
	o.Logger.InfoContext(ctx, "transitioning",
		slog.String("from", from),
		slog.String("to", to),
	)
}

func (o *LoggingObserver) OnDispatch(ctx context.Context, state, channel string, err error, d time.Duration) {
	if _, notReady := IsDataNotReady(err); notReady {
		return
	}
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "dispatch",
		slog.String("state", state),
		slog.String("channel", channel),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnCommand(ctx context.Context, cmd Twist) {
	o.Logger.DebugContext(ctx, "command",
		slog.Float64("forward", cmd.Linear.X),
		slog.Float64("angular", cmd.Angular.Z),
	)
}

func (o *LoggingObserver) OnMarker(ctx context.Context, m Marker) {
	o.Logger.DebugContext(ctx, "marker",
		slog.String("namespace", m.Namespace),
		slog.Int("id", m.ID),
	)
}

// BasicMetrics collects simple counters and aggregate update durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	dispatches          atomic.Int64
	notReadyWaits       atomic.Int64
	dispatchFailures    atomic.Int64
	transitions         atomic.Int64
	commands            atomic.Int64
	markers             atomic.Int64
	totalUpdateDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	Dispatches       int64
	NotReadyWaits    int64
	DispatchFailures int64
	Transitions      int64
	Commands         int64
	Markers          int64

	AvgUpdateDuration time.Duration
}

func (m *BasicMetrics) OnTransition(ctx context.Context, from, to string) {
	m.transitions.Add(1)
}

func (m *BasicMetrics) OnCommand(ctx context.Context, cmd Twist) {
	m.commands.Add(1)
}

func (m *BasicMetrics) OnMarker(ctx context.Context, mk Marker) {
	m.markers.Add(1)
}

func (m *BasicMetrics) OnDispatch(ctx context.Context, state, channel string, err error, d time.Duration) {
	m.dispatches.Add(1)
	if _, notReady := IsDataNotReady(err); notReady {
		m.notReadyWaits.Add(1)
		return
	}
	if err != nil {
		m.dispatchFailures.Add(1)
		return
	}
	// Only successful updates count toward the average duration.
	m.totalUpdateDuration.Add(d.Nanoseconds())
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	dispatches := m.dispatches.Load()
	notReady := m.notReadyWaits.Load()
	failures := m.dispatchFailures.Load()
	totalNs := m.totalUpdateDuration.Load()

	succeeded := dispatches - notReady - failures
	var avg time.Duration
	if succeeded > 0 {
		avg = time.Duration(totalNs / succeeded)
	}

	return BasicMetricsSnapshot{
		Dispatches:        dispatches,
		NotReadyWaits:     notReady,
		DispatchFailures:  failures,
		Transitions:       m.transitions.Load(),
		Commands:          m.commands.Load(),
		Markers:           m.markers.Load(),
		AvgUpdateDuration: avg,
	}
}
