// Package viz constructs visualization markers for debugging behavior
// states. It is a pure construction collaborator: the harness publishes
// whatever markers it is given without validation.
package viz

import (
	"time"

	"github.com/ariporad/warmup-project/pkg/api"
)

// Option customizes a marker built by NewMarker.
type Option func(*api.Marker)

// WithShape sets the marker geometry. The default is a sphere.
func WithShape(s api.MarkerShape) Option {
	return func(m *api.Marker) {
		m.Shape = s
	}
}

// WithScale sets the marker extents in meters.
func WithScale(x, y, z float64) Option {
	return func(m *api.Marker) {
		m.Scale = api.Vector3{X: x, Y: y, Z: z}
	}
}

// WithColor sets the marker color. Components are in [0, 1].
func WithColor(r, g, b, a float64) Option {
	return func(m *api.Marker) {
		m.Color = api.Color{R: r, G: g, B: b, A: a}
	}
}

// WithFrame sets the coordinate frame the position is expressed in.
func WithFrame(frame string) Option {
	return func(m *api.Marker) {
		m.Frame = frame
	}
}

// WithID sets the namespace and id under which the marker is updated.
// Re-publishing with the same namespace and id replaces the marker.
func WithID(namespace string, id int) Option {
	return func(m *api.Marker) {
		m.Namespace = namespace
		m.ID = id
	}
}

// WithLifetime sets how long the marker persists before the display expires
// it. Zero means forever.
func WithLifetime(d time.Duration) Option {
	return func(m *api.Marker) {
		m.Lifetime = d
	}
}

// NewMarker builds a marker at the given position. Defaults: a red sphere of
// 0.2 m in the "odom" frame, namespace "target", id 0, no expiry.
func NewMarker(position api.Point, opts ...Option) api.Marker {
	m := api.Marker{
		Namespace: "target",
		Frame:     "odom",
		Shape:     api.MarkerSphere,
		Position:  position,
		Scale:     api.Vector3{X: 0.2, Y: 0.2, Z: 0.2},
		Color:     api.Color{R: 1, A: 1},
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}
