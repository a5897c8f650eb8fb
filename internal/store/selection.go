package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// SelectionKind is what happened to the selection.
type SelectionKind string

const (
	SelectionLocked   SelectionKind = "locked"
	SelectionReleased SelectionKind = "released"
)

// SelectionEvent records an actor taking or losing control.
type SelectionEvent struct {
	ID        int64         `json:"id"`
	ActorID   int           `json:"actor_id"`
	Kind      SelectionKind `json:"kind"`
	Gesture   gesture.Label `json:"gesture"`
	TrackerTS uint64        `json:"tracker_ts"`
	CreatedAt time.Time     `json:"created_at"`
}

// SelectionRepository stores the selection history.
type SelectionRepository struct {
	db *sql.DB
}

// Selections returns the selection repository for this store.
func (s *Store) Selections() *SelectionRepository {
	return &SelectionRepository{db: s.db}
}

// Record appends an event and sets its ID.
func (r *SelectionRepository) Record(e *SelectionEvent) error {
	e.CreatedAt = time.Now()
	result, err := r.db.Exec(
		`INSERT INTO selections (actor_id, kind, gesture, tracker_ts, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ActorID, string(e.Kind), int(e.Gesture), int64(e.TrackerTS), e.CreatedAt,
	)
	if err != nil {
		return err
	}
	e.ID, err = result.LastInsertId()
	return err
}

// Recent returns up to limit events, newest first.
func (r *SelectionRepository) Recent(limit int) ([]*SelectionEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, actor_id, kind, gesture, tracker_ts, created_at
		 FROM selections ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*SelectionEvent
	for rows.Next() {
		e := &SelectionEvent{}
		var kind string
		var label int
		var ts int64
		if err := rows.Scan(&e.ID, &e.ActorID, &kind, &label, &ts, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = SelectionKind(kind)
		e.Gesture = gesture.Label(label)
		e.TrackerTS = uint64(ts)
		events = append(events, e)
	}
	return events, rows.Err()
}
