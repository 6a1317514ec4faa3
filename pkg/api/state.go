package api

import (
	"errors"
	"reflect"
	"strings"
)

// BehaviorState is a single mode of robot behavior. Exactly one state is
// active on a Controller at any time; the harness invokes Update once per
// sensor arrival while the state is active.
//
// Semantics every implementation must honor:
//   - Activate binds the state to a controller and enables Update calls.
//   - Deactivate clears the controller reference; the harness issues no
//     automatic stop command on transition, so the next active state must
//     establish whatever actuation it requires from its first Update.
//   - Update reads sensors through the bound controller and may publish
//     commands or request a transition. A DataNotReady error from a sensor
//     accessor must be returned unchanged (the harness treats it as "not
//     enough data yet", not as a failure) unless the state has genuine
//     fallback behavior for missing data.
type BehaviorState interface {
	Activate(c Controller)
	Deactivate()
	Update() error
}

// ParamDeclarer is an optional interface for states that declare named
// configuration parameters with default values. ResolveParams resolves the
// declared defaults through the controller's configuration source.
type ParamDeclarer interface {
	DefaultParams() map[string]any
}

// BaseState holds the controller back-reference for a behavior state.
// Embed it to get the canonical Activate/Deactivate implementation:
//
//	type Wander struct {
//	    api.BaseState
//	}
//
//	func (w *Wander) Update() error {
//	    odom, err := w.Controller().Odometry()
//	    ...
//	}
//
// The reference is set only during an activation window and must not be
// read outside one.
type BaseState struct {
	controller Controller
}

// Activate stores the controller reference.
func (b *BaseState) Activate(c Controller) {
	b.controller = c
}

// Deactivate clears the controller reference.
func (b *BaseState) Deactivate() {
	b.controller = nil
}

// Controller returns the bound controller. It panics if the state is not
// active; Update must never run on an inactive state.
func (b *BaseState) Controller() Controller {
	if b.controller == nil {
		panic("robot: state is not active (no controller bound)")
	}
	return b.controller
}

// Active reports whether the state is currently bound to a controller.
func (b *BaseState) Active() bool {
	return b.controller != nil
}

// ResolveParams resolves each default declared by the state through the
// controller's configuration source. States that do not implement
// ParamDeclarer resolve to an empty map. Lookups are lazy and idempotent;
// nothing is cached.
func ResolveParams(c Controller, s BehaviorState) map[string]any {
	decl, ok := s.(ParamDeclarer)
	if !ok {
		return map[string]any{}
	}
	defaults := decl.DefaultParams()
	resolved := make(map[string]any, len(defaults))
	for name, def := range defaults {
		resolved[name] = c.Param(name, def)
	}
	return resolved
}

// StateName derives a human-readable name for a state. States can override
// the derived type name by implementing StateName() string; func adapters do
// this. It is used for transition announcements and as the default node name.
func StateName(s BehaviorState) string {
	if s == nil {
		return "<nil>"
	}
	if named, ok := s.(interface{ StateName() string }); ok {
		if name := named.StateName(); name != "" {
			return name
		}
	}
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		// Anonymous types (e.g. func adapters) fall back to the full string.
		name = strings.TrimLeft(t.String(), "*")
	}
	return name
}

// ErrDataNotReady is the sentinel all DataNotReady errors match via errors.Is.
// It marks the designed "not enough data yet" condition: expected, frequent
// during startup, and recoverable by waiting for the next message.
var ErrDataNotReady = errors.New("waiting for sensor data")

// dataNotReadyError is returned by sensor accessors whose channel has never
// received a value.
type dataNotReadyError struct {
	Channel string
}

func (e *dataNotReadyError) Error() string {
	return "waiting for data on channel: " + e.Channel
}

func (e *dataNotReadyError) Is(target error) bool {
	return target == ErrDataNotReady
}

// NewDataNotReady returns a DataNotReady error for the given channel. It is
// primarily intended for sensor accessors, but custom states can use it to
// integrate their own "not yet" conditions with the dispatch boundary.
func NewDataNotReady(channel string) error {
	return &dataNotReadyError{Channel: channel}
}

// IsDataNotReady returns (channel, true) if err indicates that a sensor
// channel has not received data yet. The dispatch boundary uses this to
// swallow the wait rather than report a failure.
func IsDataNotReady(err error) (string, bool) {
	var d *dataNotReadyError
	if errors.As(err, &d) {
		return d.Channel, true
	}
	if errors.Is(err, ErrDataNotReady) {
		return "", true
	}
	return "", false
}
