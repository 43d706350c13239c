// Package record persists simulation runs to SQLite so classroom results
// can be replayed, graded and charted after the fact.
package record

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/linesim/linesim/internal/core/events/bus"
	"github.com/linesim/linesim/pkg/linesim"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	track TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	reason TEXT
);
CREATE TABLE IF NOT EXISTS poses (
	session_id TEXT NOT NULL,
	frame INTEGER NOT NULL,
	x DOUBLE NOT NULL,
	y DOUBLE NOT NULL,
	heading DOUBLE NOT NULL,
	PRIMARY KEY (session_id, frame),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
CREATE TABLE IF NOT EXISTS readings (
	session_id TEXT NOT NULL,
	frame INTEGER NOT NULL,
	sensor_index INTEGER NOT NULL,
	kind TEXT NOT NULL,
	value DOUBLE NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// DB wraps the recording database.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) a recording database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("record: create schema: %w", err)
	}
	return &DB{db}, nil
}

// Session is one recorded run.
type Session struct {
	ID          string
	Track       string
	Fingerprint string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Reason      string
}

// Pose is one recorded robot pose.
type Pose struct {
	Frame   uint64
	X       float64
	Y       float64
	Heading float64
}

// Reading is one recorded sensor value.
type Reading struct {
	Frame uint64
	Index int
	Kind  string
	Value float64
}

// Recorder subscribes to a simulation's event bus and persists one session.
type Recorder struct {
	db        *DB
	sessionID string
	subs      []*bus.Subscription
}

// Start opens a new session and begins recording events from the bus.
// The simulation must publish sensor telemetry for readings to appear.
func (db *DB) Start(b *bus.Bus, trackName string, fingerprint uint64) (*Recorder, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		"INSERT INTO sessions (session_id, track, fingerprint, started_at) VALUES (?, ?, ?, ?)",
		id, trackName, fmt.Sprintf("%016x", fingerprint), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("record: create session: %w", err)
	}

	r := &Recorder{db: db, sessionID: id}
	r.subs = append(r.subs, b.Subscribe(bus.TypeFrame, r.onFrame))
	r.subs = append(r.subs, b.Subscribe(bus.TypeSensorRead, r.onRead))
	for _, typ := range []string{bus.TypeFinish, bus.TypeBoundsExit, bus.TypeQuit} {
		r.subs = append(r.subs, b.Subscribe(typ, r.onStop))
	}
	return r, nil
}

// SessionID returns the id of the session being recorded.
func (r *Recorder) SessionID() string { return r.sessionID }

// Close detaches the recorder from the bus.
func (r *Recorder) Close() {
	for _, s := range r.subs {
		s.Cancel()
	}
	r.subs = nil
}

func (r *Recorder) onFrame(e bus.Event) error {
	f, ok := e.Data.(linesim.FrameData)
	if !ok {
		return fmt.Errorf("record: unexpected frame payload %T", e.Data)
	}
	_, err := r.db.Exec(
		"INSERT INTO poses (session_id, frame, x, y, heading) VALUES (?, ?, ?, ?, ?)",
		r.sessionID, f.Frame, f.X, f.Y, f.Heading,
	)
	return err
}

func (r *Recorder) onRead(e bus.Event) error {
	v, ok := e.Data.(linesim.SensorRead)
	if !ok {
		return fmt.Errorf("record: unexpected reading payload %T", e.Data)
	}
	_, err := r.db.Exec(
		"INSERT INTO readings (session_id, frame, sensor_index, kind, value) VALUES (?, ?, ?, ?, ?)",
		r.sessionID, v.Frame, v.Index, v.Kind, v.Value,
	)
	return err
}

func (r *Recorder) onStop(e bus.Event) error {
	s, ok := e.Data.(linesim.StopData)
	if !ok {
		return fmt.Errorf("record: unexpected stop payload %T", e.Data)
	}
	_, err := r.db.Exec(
		"UPDATE sessions SET finished_at = ?, reason = ? WHERE session_id = ?",
		time.Now().UTC(), s.Reason, r.sessionID,
	)
	return err
}

// Sessions lists recorded sessions, newest first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(
		"SELECT session_id, track, fingerprint, started_at, finished_at, reason FROM sessions ORDER BY started_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var finished sql.NullTime
		var reason sql.NullString
		if err := rows.Scan(&s.ID, &s.Track, &s.Fingerprint, &s.StartedAt, &finished, &reason); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			s.FinishedAt = &t
		}
		s.Reason = reason.String
		out = append(out, s)
	}
	return out, rows.Err()
}

// Poses returns the recorded trajectory of a session in frame order.
func (db *DB) Poses(sessionID string) ([]Pose, error) {
	rows, err := db.Query(
		"SELECT frame, x, y, heading FROM poses WHERE session_id = ? ORDER BY frame",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pose
	for rows.Next() {
		var p Pose
		if err := rows.Scan(&p.Frame, &p.X, &p.Y, &p.Heading); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Readings returns the recorded sensor values of a session in frame order.
func (db *DB) Readings(sessionID string) ([]Reading, error) {
	rows, err := db.Query(
		"SELECT frame, sensor_index, kind, value FROM readings WHERE session_id = ? ORDER BY frame, sensor_index",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.Frame, &r.Index, &r.Kind, &r.Value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
