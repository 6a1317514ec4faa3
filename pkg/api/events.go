package api

import "time"

// EventType identifies a harness journal event.
type EventType string

const (
	EventStateActivated   EventType = "state.activated"
	EventStateDeactivated EventType = "state.deactivated"
	EventTransition       EventType = "state.transition"

	EventCommandPublished EventType = "command.published"
	EventMarkerPublished  EventType = "marker.published"

	EventDispatchFailed EventType = "dispatch.failed"
)

// Event is a minimal append-only journal record for audit/debugging.
// It is intentionally small and stable; richer telemetry can be layered later.
type Event struct {
	Session string
	At      time.Time
	Type    EventType

	// Optional context.
	Node    string
	State   string
	Channel string

	// Small, human-oriented details (e.g. the command values or an error
	// string). Keep this low-volume: do NOT dump sensor payloads here.
	Detail string
}
