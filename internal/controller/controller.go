// Package controller implements the node at the center of the harness: it
// owns the sensor cache and the active behavior state, routes each incoming
// sensor message to cache-update plus re-evaluation, and gives states their
// outbound actuation and visualization surface.
package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ariporad/warmup-project/internal/sensor"
	"github.com/ariporad/warmup-project/internal/transport"
	"github.com/ariporad/warmup-project/pkg/api"
	"github.com/ariporad/warmup-project/pkg/params"
)

// Config describes how to construct a Node.
type Config struct {
	// Name is the process-scoped node name. It namespaces Param lookups.
	Name string

	// Bus carries inbound sensor messages and outbound commands. Required.
	Bus transport.Bus

	// Params is the configuration source. Optional; lookups fall back to
	// the caller-supplied defaults when nil.
	Params params.Source

	// Observer receives lifecycle callbacks. Optional.
	Observer api.Observer
}

// Node bridges asynchronous sensor delivery to synchronous state evaluation.
//
// The active-state slot and the dispatch path are mutated only from the
// bus's single delivery goroutine; the bus's serialized-callback guarantee
// is a mandatory precondition, assumed rather than enforced here.
type Node struct {
	name     string
	bus      transport.Bus
	cache    *sensor.Cache
	params   params.Source
	observer api.Observer

	active api.BehaviorState

	// ctx is the context of the in-flight dispatch, so that Transition and
	// the publish helpers observe the same context as the callback that
	// triggered them. Only touched on the delivery goroutine.
	ctx context.Context
}

// Ensure Node satisfies the state-facing contract.
var _ api.Controller = (*Node)(nil)

// New constructs a Node with the given initial state, activates the state,
// and subscribes to the sensor channels. Subscriptions are registered only
// after the active state is set, so no message can arrive before there is a
// valid state to dispatch to.
func New(initial api.BehaviorState, cfg Config) (*Node, error) {
	if initial == nil {
		return nil, errors.New("controller: initial state is required")
	}
	if cfg.Bus == nil {
		return nil, errors.New("controller: bus is required")
	}

	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}

	n := &Node{
		name:     cfg.Name,
		bus:      cfg.Bus,
		cache:    sensor.NewCache(),
		params:   cfg.Params,
		observer: obs,
		active:   initial,
	}

	n.active.Activate(n)
	n.observer.OnActivate(context.Background(), api.StateName(n.active))

	n.subscribe(api.ChannelOdometry)
	n.subscribe(api.ChannelPointCloud)

	return n, nil
}

// subscribe registers the per-channel delivery callback: write the message
// into the cache under the channel's key, then dispatch.
func (n *Node) subscribe(channel string) {
	n.bus.Subscribe(channel, func(ctx context.Context, msg any) error {
		n.cache.Set(channel, msg)
		return n.Dispatch(ctx, channel)
	})
}

// Dispatch invokes the active state's Update.
//
// A DataNotReady error is swallowed: it is the designed "not enough data
// yet" path and produces no error report, no retry scheduling (the next
// message arrival naturally retries), and no state change. Any other error
// propagates to the caller; its handling belongs to the surrounding
// event-loop runner.
func (n *Node) Dispatch(ctx context.Context, channel string) error {
	n.ctx = ctx
	defer func() { n.ctx = nil }()

	st := n.active
	start := time.Now()
	err := st.Update()
	n.observer.OnDispatch(ctx, api.StateName(st), channel, err, time.Since(start))

	if _, notReady := api.IsDataNotReady(err); notReady {
		return nil
	}
	return err
}

// Transition deactivates the currently active state, replaces it with next,
// and activates next on this node. The old state is fully deactivated before
// the new one is activated.
//
// Transition is typically invoked from inside the active state's own Update;
// the call stack unwinds normally and the next dispatch uses the new state.
func (n *Node) Transition(next api.BehaviorState) {
	ctx := n.dispatchCtx()
	from := api.StateName(n.active)
	to := api.StateName(next)

	n.active.Deactivate()
	n.observer.OnDeactivate(ctx, from)

	n.active = next
	n.active.Activate(n)
	n.observer.OnActivate(ctx, to)
	n.observer.OnTransition(ctx, from, to)
}

// Active returns the currently active state.
func (n *Node) Active() api.BehaviorState {
	return n.active
}

// Run blocks, delivering queued sensor events to the active state until ctx
// is cancelled or a dispatch fails with something other than DataNotReady.
func (n *Node) Run(ctx context.Context) error {
	return n.bus.Run(ctx)
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

// Odometry returns the latest odometry message, or DataNotReady if none has
// arrived yet.
func (n *Node) Odometry() (api.Odometry, error) {
	v, err := n.cache.Get(api.ChannelOdometry)
	if err != nil {
		return api.Odometry{}, err
	}
	odom, ok := v.(api.Odometry)
	if !ok {
		return api.Odometry{}, fmt.Errorf("controller: unexpected odometry payload %T", v)
	}
	return odom, nil
}

// PointCloud returns the latest point-cloud message, or DataNotReady if none
// has arrived yet.
func (n *Node) PointCloud() (api.PointCloud, error) {
	v, err := n.cache.Get(api.ChannelPointCloud)
	if err != nil {
		return api.PointCloud{}, err
	}
	pc, ok := v.(api.PointCloud)
	if !ok {
		return api.PointCloud{}, fmt.Errorf("controller: unexpected point cloud payload %T", v)
	}
	return pc, nil
}

// LaserPoints returns the decoded geometry of the latest point cloud.
func (n *Node) LaserPoints() ([]api.Point, error) {
	pc, err := n.PointCloud()
	if err != nil {
		return nil, err
	}
	return pc.Points, nil
}

// Position returns the robot's estimated position from odometry.
func (n *Node) Position() (api.Point, error) {
	odom, err := n.Odometry()
	if err != nil {
		return api.Point{}, err
	}
	return odom.Pose.Position, nil
}

// Orientation returns the robot's estimated orientation from odometry.
func (n *Node) Orientation() (api.Quaternion, error) {
	odom, err := n.Odometry()
	if err != nil {
		return api.Quaternion{}, err
	}
	return odom.Pose.Orientation, nil
}

// Heading returns the yaw angle in radians, derived from Orientation.
func (n *Node) Heading() (float64, error) {
	q, err := n.Orientation()
	if err != nil {
		return 0, err
	}
	return q.Yaw(), nil
}

// LinearVelocity returns the odometry linear velocity.
func (n *Node) LinearVelocity() (api.Vector3, error) {
	odom, err := n.Odometry()
	if err != nil {
		return api.Vector3{}, err
	}
	return odom.Twist.Linear, nil
}

// AngularVelocity returns the odometry angular velocity.
func (n *Node) AngularVelocity() (api.Vector3, error) {
	odom, err := n.Odometry()
	if err != nil {
		return api.Vector3{}, err
	}
	return odom.Twist.Angular, nil
}

// SetSpeed publishes one velocity command. Non-finite inputs (NaN, ±Inf)
// are normalized to zero before publishing. It always succeeds; if the
// outbound queue is saturated the command is dropped, never blocking the
// dispatch path.
func (n *Node) SetSpeed(forward, angular float64) {
	if !isFinite(forward) {
		forward = 0
	}
	if !isFinite(angular) {
		angular = 0
	}
	cmd := api.Twist{
		Linear:  api.Vector3{X: forward},
		Angular: api.Vector3{Z: angular},
	}
	n.bus.TryPublish(api.ChannelVelocity, cmd)
	n.observer.OnCommand(n.dispatchCtx(), cmd)
}

// MarkTarget publishes one visualization marker. Pure pass-through; marker
// construction (pkg/viz) owns whatever shaping is needed.
func (n *Node) MarkTarget(m api.Marker) {
	n.bus.TryPublish(api.ChannelTarget, m)
	n.observer.OnMarker(n.dispatchCtx(), m)
}

// Param resolves a node-namespaced configuration value, falling back to def
// when unset. Resolution is lazy per access.
func (n *Node) Param(name string, def any) any {
	if n.params == nil {
		return def
	}
	v, ok := n.params.Lookup(n.name + "/" + name)
	if !ok {
		return def
	}
	return v
}

func (n *Node) dispatchCtx() context.Context {
	if n.ctx != nil {
		return n.ctx
	}
	return context.Background()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
