package robot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ariporad/warmup-project/internal/journal"
	"github.com/ariporad/warmup-project/pkg/api"
)

// Journal records harness events (activations, transitions, published
// commands, dispatch failures) as an append-only history keyed by a
// per-run session ID.
//
// Wire it into a runner as an observer:
//
//	j := robot.NewJournal()
//	r, _ := robot.NewRunner(&Wander{}, robot.WithObserver(
//	    robot.NewCompositeObserver(robot.NewLoggingObserver(nil), j.Observer()),
//	))
//	...
//	events, _ := j.Events(ctx)
type Journal struct {
	store   journal.Store
	session string
}

// NewJournal creates a Journal backed by a non-durable in-memory store.
func NewJournal() *Journal {
	return &Journal{
		store:   journal.NewMemoryStore(),
		session: uuid.NewString(),
	}
}

// NewSQLiteJournal creates a Journal that persists events in a SQLite
// database. The caller owns the *sql.DB and must import a SQLite driver
// (for example, "modernc.org/sqlite").
func NewSQLiteJournal(db *sql.DB) (*Journal, error) {
	store, err := journal.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return &Journal{
		store:   store,
		session: uuid.NewString(),
	}, nil
}

// Session returns this run's session ID.
func (j *Journal) Session() string {
	return j.session
}

// Events returns this session's events in append order.
func (j *Journal) Events(ctx context.Context) ([]Event, error) {
	return j.store.ListEvents(ctx, j.session)
}

// Observer returns an Observer that appends harness events to the journal.
// Append failures are dropped: the journal is advisory and must never
// disturb the dispatch path.
func (j *Journal) Observer() Observer {
	return &journalObserver{journal: j}
}

type journalObserver struct {
	api.NoopObserver

	journal *Journal
}

func (o *journalObserver) append(ctx context.Context, ev api.Event) {
	ev.Session = o.journal.session
	_ = o.journal.store.AppendEvent(ctx, ev)
}

func (o *journalObserver) OnActivate(ctx context.Context, state string) {
	o.append(ctx, api.Event{Type: api.EventStateActivated, State: state})
}

func (o *journalObserver) OnDeactivate(ctx context.Context, state string) {
	o.append(ctx, api.Event{Type: api.EventStateDeactivated, State: state})
}

func (o *journalObserver) OnTransition(ctx context.Context, from, to string) {
	o.append(ctx, api.Event{
		Type:   api.EventTransition,
		State:  to,
		Detail: from + " -> " + to,
	})
}

func (o *journalObserver) OnDispatch(ctx context.Context, state, channel string, err error, d time.Duration) {
	// The "not yet" path and clean dispatches are too frequent to journal.
	if err == nil {
		return
	}
	if _, notReady := api.IsDataNotReady(err); notReady {
		return
	}
	o.append(ctx, api.Event{
		Type:    api.EventDispatchFailed,
		State:   state,
		Channel: channel,
		Detail:  err.Error(),
	})
}

func (o *journalObserver) OnCommand(ctx context.Context, cmd api.Twist) {
	o.append(ctx, api.Event{
		Type:    api.EventCommandPublished,
		Channel: api.ChannelVelocity,
		Detail:  fmt.Sprintf("forward=%.3f angular=%.3f", cmd.Linear.X, cmd.Angular.Z),
	})
}

func (o *journalObserver) OnMarker(ctx context.Context, m api.Marker) {
	o.append(ctx, api.Event{
		Type:    api.EventMarkerPublished,
		Channel: api.ChannelTarget,
		Detail:  fmt.Sprintf("%s/%d", m.Namespace, m.ID),
	})
}
