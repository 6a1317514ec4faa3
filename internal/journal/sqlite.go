package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/ariporad/warmup-project/pkg/api"
)

// SQLiteStore stores harness events in SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS harness_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			node TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			channel TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_harness_events_session ON harness_events(session, id);
	`)
	return err
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, ev api.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO harness_events (session, at, type, node, state, channel, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Session,
		at.UnixNano(),
		string(ev.Type),
		ev.Node,
		ev.State,
		ev.Channel,
		ev.Detail,
	)
	return err
}

func (s *SQLiteStore) ListEvents(ctx context.Context, session string) ([]api.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session, at, type, node, state, channel, detail
		FROM harness_events
		WHERE session = ?
		ORDER BY id ASC`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.Event
	for rows.Next() {
		var (
			sess    string
			atN     int64
			typ     string
			node    string
			state   string
			channel string
			detail  string
		)
		if err := rows.Scan(&sess, &atN, &typ, &node, &state, &channel, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.Event{
			Session: sess,
			At:      time.Unix(0, atN),
			Type:    api.EventType(typ),
			Node:    node,
			State:   state,
			Channel: channel,
			Detail:  detail,
		})
	}
	return out, rows.Err()
}
