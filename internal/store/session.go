package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// Session is one recording run of a single gesture label.
type Session struct {
	ID          string        `json:"id"`
	Label       gesture.Label `json:"label"`
	Target      int           `json:"target"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// SessionRepository provides CRUD operations for recording sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session.
func (r *SessionRepository) Create(sess *Session) error {
	sess.CreatedAt = time.Now()
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, label, target, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, int(sess.Label), sess.Target, sess.Notes, sess.CreatedAt,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, label, target, notes, created_at, completed_at FROM sessions WHERE id = ?`, id,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

// List retrieves all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, label, target, notes, created_at, completed_at FROM sessions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Complete marks a session as finished.
func (r *SessionRepository) Complete(id string) error {
	result, err := r.db.Exec(`UPDATE sessions SET completed_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

// Delete removes a session and its samples.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var label int
	var completed sql.NullTime
	if err := row.Scan(&sess.ID, &label, &sess.Target, &sess.Notes, &sess.CreatedAt, &completed); err != nil {
		return nil, err
	}
	sess.Label = gesture.Label(label)
	if completed.Valid {
		t := completed.Time
		sess.CompletedAt = &t
	}
	return sess, nil
}

// expectRow returns ErrNotFound when a statement touched no rows.
func expectRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
