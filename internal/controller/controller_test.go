package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/ariporad/warmup-project/internal/transport"
	"github.com/ariporad/warmup-project/pkg/api"
	"github.com/ariporad/warmup-project/pkg/params"
)

// stubState counts lifecycle calls and delegates Update to a test-provided
// function.
type stubState struct {
	name string

	activations   int
	deactivations int
	updates       int

	controller api.Controller
	update     func(s *stubState) error
}

func (s *stubState) Activate(c api.Controller) {
	s.activations++
	s.controller = c
}

func (s *stubState) Deactivate() {
	s.deactivations++
	s.controller = nil
}

func (s *stubState) Update() error {
	s.updates++
	if s.update != nil {
		return s.update(s)
	}
	return nil
}

func (s *stubState) StateName() string {
	return s.name
}

// recordingObserver captures observer callbacks for assertions. Tests drive
// dispatch synchronously, so no locking is needed.
type recordingObserver struct {
	api.NoopObserver

	commands    []api.Twist
	markers     []api.Marker
	transitions [][2]string
	dispatches  []error
}

func (o *recordingObserver) OnTransition(ctx context.Context, from, to string) {
	o.transitions = append(o.transitions, [2]string{from, to})
}

func (o *recordingObserver) OnDispatch(ctx context.Context, state, channel string, err error, d time.Duration) {
	o.dispatches = append(o.dispatches, err)
}

func (o *recordingObserver) OnCommand(ctx context.Context, cmd api.Twist) {
	o.commands = append(o.commands, cmd)
}

func (o *recordingObserver) OnMarker(ctx context.Context, m api.Marker) {
	o.markers = append(o.markers, m)
}

func newTestNode(t *testing.T, initial api.BehaviorState, cfg Config) (*Node, *transport.InMemoryBus) {
	t.Helper()

	bus := transport.NewInMemoryBus(64)
	cfg.Bus = bus
	node, err := New(initial, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return node, bus
}

func odomAt(x, y float64) api.Odometry {
	return api.Odometry{
		Frame: "odom",
		Stamp: time.Now(),
		Pose:  api.Pose{Position: api.Point{X: x, Y: y}, Orientation: api.Quaternion{W: 1}},
	}
}

func TestConstructionActivatesInitialState(t *testing.T) {
	s0 := &stubState{name: "initial"}
	node, _ := newTestNode(t, s0, Config{Name: "test"})

	if s0.activations != 1 {
		t.Fatalf("expected exactly one activation, got %d", s0.activations)
	}
	if s0.updates != 0 {
		t.Fatalf("no dispatch should happen at construction, got %d updates", s0.updates)
	}
	if node.Active() != s0 {
		t.Fatalf("expected s0 to be the active state")
	}

	// No channel is populated yet.
	if _, err := node.Odometry(); !errors.Is(err, api.ErrDataNotReady) {
		t.Fatalf("expected DataNotReady before first odometry, got %v", err)
	}
	if _, err := node.PointCloud(); !errors.Is(err, api.ErrDataNotReady) {
		t.Fatalf("expected DataNotReady before first point cloud, got %v", err)
	}
}

func TestConstructionRequiresInitialState(t *testing.T) {
	bus := transport.NewInMemoryBus(1)
	if _, err := New(nil, Config{Bus: bus}); err == nil {
		t.Fatalf("expected error for nil initial state")
	}
	if _, err := New(&stubState{}, Config{}); err == nil {
		t.Fatalf("expected error for missing bus")
	}
}

func TestDispatchSwallowsDataNotReady(t *testing.T) {
	ctx := context.Background()

	s0 := &stubState{
		name: "waiting",
		update: func(s *stubState) error {
			_, err := s.controller.PointCloud()
			return err
		},
	}
	obs := &recordingObserver{}
	node, bus := newTestNode(t, s0, Config{Name: "test", Observer: obs})

	// Deliver odometry; the state wants the point cloud, which is unset.
	if err := bus.DeliverOne(ctx, api.ChannelOdometry, odomAt(0, 0)); err != nil {
		t.Fatalf("DataNotReady must not propagate past the dispatch boundary, got %v", err)
	}

	if s0.updates != 1 {
		t.Fatalf("expected exactly one update, got %d", s0.updates)
	}
	if node.Active() != s0 {
		t.Fatalf("a not-ready wait must not change the active state")
	}
	if len(obs.dispatches) != 1 {
		t.Fatalf("expected one dispatch callback, got %d", len(obs.dispatches))
	}
	if _, notReady := api.IsDataNotReady(obs.dispatches[0]); !notReady {
		t.Fatalf("observer should see the DataNotReady, got %v", obs.dispatches[0])
	}
}

func TestDispatchPropagatesOtherErrors(t *testing.T) {
	ctx := context.Background()

	boom := errors.New("motor controller on fire")
	s0 := &stubState{
		name:   "failing",
		update: func(s *stubState) error { return boom },
	}
	node, bus := newTestNode(t, s0, Config{Name: "test"})

	err := bus.DeliverOne(ctx, api.ChannelOdometry, odomAt(0, 0))
	if !errors.Is(err, boom) {
		t.Fatalf("expected the state's error unchanged, got %v", err)
	}
	if node.Active() != s0 {
		t.Fatalf("a failed dispatch must not change the active state")
	}
}

func TestTransitionFromWithinUpdate(t *testing.T) {
	ctx := context.Background()

	var order []string

	s2 := &stubState{name: "second"}
	s1 := &stubState{name: "first"}
	s1.update = func(s *stubState) error {
		s.controller.Transition(s2)
		return nil
	}

	s2.update = func(s *stubState) error {
		order = append(order, "second.update")
		return nil
	}

	obs := &recordingObserver{}
	node, bus := newTestNode(t, s1, Config{Name: "test", Observer: obs})

	if err := bus.DeliverOne(ctx, api.ChannelOdometry, odomAt(0, 0)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if node.Active() != s2 {
		t.Fatalf("expected s2 active after dispatch returns")
	}
	if s1.deactivations != 1 {
		t.Fatalf("expected s1 deactivated exactly once, got %d", s1.deactivations)
	}
	if s2.activations != 1 {
		t.Fatalf("expected s2 activated exactly once, got %d", s2.activations)
	}
	if s2.updates != 0 {
		t.Fatalf("the dispatch that requested the transition must not re-run on s2")
	}
	if len(obs.transitions) != 1 || obs.transitions[0] != [2]string{"first", "second"} {
		t.Fatalf("unexpected transitions: %v", obs.transitions)
	}

	// The next dispatch uses the new state.
	if err := bus.DeliverOne(ctx, api.ChannelOdometry, odomAt(1, 0)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if s2.updates != 1 || s1.updates != 1 {
		t.Fatalf("expected second dispatch on s2 only: s1=%d s2=%d", s1.updates, s2.updates)
	}
	if order[0] != "second.update" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestTransitionDeactivatesBeforeActivate(t *testing.T) {
	ctx := context.Background()

	var order []string

	s1 := &orderedState{log: &order, name: "s1"}
	s2 := &orderedState{log: &order, name: "s2"}
	s1.update = func(c api.Controller) error {
		c.Transition(s2)
		return nil
	}

	_, bus := newTestNode(t, s1, Config{Name: "test"})

	if err := bus.DeliverOne(ctx, api.ChannelOdometry, odomAt(0, 0)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	want := []string{"s1.activate", "s1.update", "s1.deactivate", "s2.activate"}
	if len(order) != len(want) {
		t.Fatalf("unexpected lifecycle order: %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("lifecycle order mismatch at %d: got %v, want %v", i, order, want)
		}
	}
}

// orderedState appends every lifecycle call to a shared log.
type orderedState struct {
	log  *[]string
	name string

	controller api.Controller
	update     func(c api.Controller) error
}

func (s *orderedState) Activate(c api.Controller) {
	*s.log = append(*s.log, s.name+".activate")
	s.controller = c
}

func (s *orderedState) Deactivate() {
	*s.log = append(*s.log, s.name+".deactivate")
	s.controller = nil
}

func (s *orderedState) Update() error {
	*s.log = append(*s.log, s.name+".update")
	if s.update != nil {
		return s.update(s.controller)
	}
	return nil
}

func TestSetSpeedSanitizesNonFinite(t *testing.T) {
	obs := &recordingObserver{}
	node, _ := newTestNode(t, &stubState{}, Config{Name: "test", Observer: obs})

	node.SetSpeed(math.NaN(), 2.0)
	node.SetSpeed(1.0, math.NaN())
	node.SetSpeed(math.Inf(1), math.Inf(-1))

	want := []api.Twist{
		{Linear: api.Vector3{X: 0}, Angular: api.Vector3{Z: 2.0}},
		{Linear: api.Vector3{X: 1.0}, Angular: api.Vector3{Z: 0}},
		{Linear: api.Vector3{X: 0}, Angular: api.Vector3{Z: 0}},
	}
	if len(obs.commands) != len(want) {
		t.Fatalf("expected %d commands, got %d", len(want), len(obs.commands))
	}
	for i, cmd := range obs.commands {
		if cmd != want[i] {
			t.Fatalf("command %d: got %+v, want %+v", i, cmd, want[i])
		}
	}
}

func TestSequentialDispatchSeesLatestValue(t *testing.T) {
	ctx := context.Background()

	var seen []float64
	s0 := &stubState{
		name: "reader",
		update: func(s *stubState) error {
			p, err := s.controller.Position()
			if err != nil {
				return err
			}
			seen = append(seen, p.X)
			return nil
		},
	}
	_, bus := newTestNode(t, s0, Config{Name: "test"})

	if err := bus.DeliverOne(ctx, api.ChannelOdometry, odomAt(1, 0)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if err := bus.DeliverOne(ctx, api.ChannelOdometry, odomAt(2, 0)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("expected reads [1 2], got %v", seen)
	}
}

func TestDerivedAccessorsFailTogether(t *testing.T) {
	ctx := context.Background()
	node, bus := newTestNode(t, &stubState{}, Config{Name: "test"})

	assertNotReady := func(name string, err error) {
		t.Helper()
		if !errors.Is(err, api.ErrDataNotReady) {
			t.Fatalf("%s: expected DataNotReady, got %v", name, err)
		}
	}

	_, err := node.Position()
	assertNotReady("Position", err)
	_, err = node.Orientation()
	assertNotReady("Orientation", err)
	_, err = node.Heading()
	assertNotReady("Heading", err)
	_, err = node.LinearVelocity()
	assertNotReady("LinearVelocity", err)
	_, err = node.AngularVelocity()
	assertNotReady("AngularVelocity", err)
	_, err = node.LaserPoints()
	assertNotReady("LaserPoints", err)

	// Populating odometry readies its derivations but not the point cloud.
	if err := bus.DeliverOne(ctx, api.ChannelOdometry, odomAt(3, 4)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	p, err := node.Position()
	if err != nil {
		t.Fatalf("Position failed after odometry arrived: %v", err)
	}
	if p.X != 3 || p.Y != 4 {
		t.Fatalf("unexpected position %+v", p)
	}
	_, err = node.LaserPoints()
	assertNotReady("LaserPoints after odometry", err)
}

func TestHeadingDerivesYaw(t *testing.T) {
	ctx := context.Background()
	node, bus := newTestNode(t, &stubState{}, Config{Name: "test"})

	// Quaternion for a pi/2 rotation about Z.
	odom := odomAt(0, 0)
	odom.Pose.Orientation = api.Quaternion{Z: math.Sin(math.Pi / 4), W: math.Cos(math.Pi / 4)}
	if err := bus.DeliverOne(ctx, api.ChannelOdometry, odom); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	yaw, err := node.Heading()
	if err != nil {
		t.Fatalf("Heading failed: %v", err)
	}
	if math.Abs(yaw-math.Pi/2) > 1e-9 {
		t.Fatalf("expected yaw pi/2, got %v", yaw)
	}
}

func TestLaserPointsReturnDecodedGeometry(t *testing.T) {
	ctx := context.Background()
	node, bus := newTestNode(t, &stubState{}, Config{Name: "test"})

	pc := api.PointCloud{
		Frame:  "odom",
		Points: []api.Point{{X: 1}, {X: 2, Y: 1}},
	}
	if err := bus.DeliverOne(ctx, api.ChannelPointCloud, pc); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	points, err := node.LaserPoints()
	if err != nil {
		t.Fatalf("LaserPoints failed: %v", err)
	}
	if len(points) != 2 || points[1].Y != 1 {
		t.Fatalf("unexpected points %v", points)
	}
}

func TestParamNamespacingAndFallback(t *testing.T) {
	src := params.MapSource{
		"test/max_speed": 0.5,
		"other/gain":     2.0,
	}
	node, _ := newTestNode(t, &stubState{}, Config{Name: "test", Params: src})

	if got := node.Param("max_speed", 0.1); got != 0.5 {
		t.Fatalf("expected namespaced lookup 0.5, got %v", got)
	}
	// Another node's namespace is invisible.
	if got := node.Param("gain", 1.0); got != 1.0 {
		t.Fatalf("expected fallback for foreign namespace, got %v", got)
	}
	if got := node.Param("missing", "fallback"); got != "fallback" {
		t.Fatalf("expected default for unset key, got %v", got)
	}
}

func TestMarkTargetPublishes(t *testing.T) {
	obs := &recordingObserver{}
	node, bus := newTestNode(t, &stubState{}, Config{Name: "test", Observer: obs})

	m := api.Marker{Namespace: "target", ID: 7, Position: api.Point{X: 1}}
	node.MarkTarget(m)

	if len(obs.markers) != 1 || obs.markers[0].ID != 7 {
		t.Fatalf("expected marker callback, got %v", obs.markers)
	}
	if bus.Len() != 1 {
		t.Fatalf("expected the marker on the outbound queue, got %d", bus.Len())
	}
}

func TestResolveParamsUsesControllerSource(t *testing.T) {
	src := params.MapSource{
		"test/max_speed": 0.75,
	}
	node, _ := newTestNode(t, &stubState{}, Config{Name: "test", Params: src})

	declared := &declaringState{}
	resolved := api.ResolveParams(node, declared)

	if got := resolved["max_speed"]; got != 0.75 {
		t.Fatalf("expected configured value 0.75, got %v", got)
	}
	if got := resolved["turn_gain"]; got != 1.5 {
		t.Fatalf("expected declared default 1.5, got %v", got)
	}
}

// declaringState declares defaults without implementing any behavior.
type declaringState struct {
	stubState
}

func (s *declaringState) DefaultParams() map[string]any {
	return map[string]any{
		"max_speed": 0.25,
		"turn_gain": 1.5,
	}
}

func TestDispatchErrorDoesNotStopLaterDispatches(t *testing.T) {
	ctx := context.Background()

	calls := 0
	s0 := &stubState{
		name: "flaky",
		update: func(s *stubState) error {
			calls++
			if calls == 1 {
				return fmt.Errorf("transient: %d", calls)
			}
			return nil
		},
	}
	_, bus := newTestNode(t, s0, Config{Name: "test"})

	if err := bus.DeliverOne(ctx, api.ChannelOdometry, odomAt(0, 0)); err == nil {
		t.Fatalf("expected first dispatch to fail")
	}
	if err := bus.DeliverOne(ctx, api.ChannelOdometry, odomAt(0, 0)); err != nil {
		t.Fatalf("expected second dispatch to succeed, got %v", err)
	}
}
