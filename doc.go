// Package robot provides a minimal event-driven behavior-state harness for a
// mobile-robot controller: sensor messages arrive on named channels, the
// harness caches the latest value per channel, and every arrival re-evaluates
// the currently active behavior state, which reads sensors and publishes
// velocity commands and debug markers through the controller.
//
// # Core Concepts
//
// The programming model is intentionally small and idiomatic:
//
//  1. BehaviorState
//  2. Controller
//  3. Runner
//  4. Journal
//
// # BehaviorState
//
// A BehaviorState is one mode of robot behavior, such as following a wall
// or approaching a target. Exactly one state is active at a time. States
// implement three methods:
//
//	Activate(c Controller)  // bind to the controller
//	Deactivate()            // unbind
//	Update() error          // react to the latest sensor data
//
// Embedding BaseState provides the canonical Activate/Deactivate and a
// Controller() accessor. From Update, a state may publish commands
// (SetSpeed, MarkTarget) and may request a transition to another state:
//
//	func (w *Wander) Update() error {
//	    points, err := w.Controller().LaserPoints()
//	    if err != nil {
//	        return err // DataNotReady propagates unchanged
//	    }
//	    if tooClose(points) {
//	        w.Controller().Transition(&Avoid{})
//	        return nil
//	    }
//	    w.Controller().SetSpeed(0.3, 0)
//	    return nil
//	}
//
// # Not enough data yet
//
// Until a channel has received its first message, every accessor for it
// fails with a DataNotReady error. This is an expected, frequent condition
// during startup, not a failure: states return it unchanged, and the
// dispatch boundary swallows it silently. There is no retry scheduling;
// the next message arrival naturally retries. Any other error a state
// returns propagates to the runner, whose policy (log-and-continue by
// default, stop with WithFailFast) is deliberately outside the core.
//
// # Controller
//
// The Controller owns the sensor cache and the active state. It subscribes
// to the "odometry" and "point_cloud" channels; each arrival writes the
// cache and dispatches Update on the active state. Transition replaces the
// active state atomically with respect to dispatch: the old state is fully
// deactivated before the new one is activated, and a state may safely
// request a transition from inside its own Update.
//
// All callbacks run on a single delivery goroutine, so cache writes and
// Update invocations never race. Cross-channel readings are each "freshest
// independently": no snapshot consistency or timestamp alignment is
// attempted.
//
// # Runner
//
// Runner bundles an in-process bus and a controller. The blocking Run
// bootstraps everything in one call:
//
//	err := robot.Run(ctx, &Wander{},
//	    robot.WithName("wander"),
//	    robot.WithEnvironmentReset(sim.Reset),
//	)
//
// An environment reset, when requested, happens before the controller is
// constructed. For tests and embedding, NewRunner plus Start/Stop runs the
// event loop on a background goroutine.
//
// # Journal
//
// A Journal records activations, transitions, published commands, and
// dispatch failures as an append-only event history, in memory or in SQLite
// (via database/sql and the modernc.org/sqlite driver). Wire it in as an
// observer:
//
//	j := robot.NewJournal()
//	r, _ := robot.NewRunner(&Wander{}, robot.WithObserver(j.Observer()))
//
// Observers compose: NewCompositeObserver fans out to logging (log/slog),
// metrics (BasicMetrics), and journaling at once.
//
// For examples, see the /examples directory.
package robot
