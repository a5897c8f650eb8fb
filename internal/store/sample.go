package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// Sample is one labelled feature vector recorded for training.
type Sample struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"session_id,omitempty"`
	Label     gesture.Label `json:"label"`
	ActorID   int           `json:"actor_id"`
	Features  []float64     `json:"features"`
	CreatedAt time.Time     `json:"created_at"`
}

// SampleFilter narrows a sample listing. Zero values match everything.
type SampleFilter struct {
	Label     gesture.Label
	SessionID string
}

// SampleRepository provides CRUD operations for training samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create inserts a sample and sets its ID.
func (r *SampleRepository) Create(smp *Sample) error {
	data, err := json.Marshal(smp.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	smp.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO samples (session_id, label, actor_id, features, created_at) VALUES (?, ?, ?, ?, ?)`,
		nullString(smp.SessionID), int(smp.Label), smp.ActorID, string(data), smp.CreatedAt,
	)
	if err != nil {
		return err
	}
	smp.ID, err = result.LastInsertId()
	return err
}

// GetByID retrieves a sample by its ID.
func (r *SampleRepository) GetByID(id int64) (*Sample, error) {
	row := r.db.QueryRow(
		`SELECT id, session_id, label, actor_id, features, created_at FROM samples WHERE id = ?`, id,
	)
	smp, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return smp, err
}

// List retrieves the samples matching f in insertion order.
func (r *SampleRepository) List(f SampleFilter) ([]*Sample, error) {
	query := `SELECT id, session_id, label, actor_id, features, created_at FROM samples`
	var where []string
	var args []any
	if f.Label != 0 {
		where = append(where, "label = ?")
		args = append(args, int(f.Label))
	}
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*Sample
	for rows.Next() {
		smp, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

// CountByLabel returns the number of samples per label.
func (r *SampleRepository) CountByLabel() (map[gesture.Label]int, error) {
	rows, err := r.db.Query(`SELECT label, COUNT(*) FROM samples GROUP BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[gesture.Label]int)
	for rows.Next() {
		var label, n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[gesture.Label(label)] = n
	}
	return counts, rows.Err()
}

// Delete removes a sample by its ID.
func (r *SampleRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM samples WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

// DeleteBySession removes all samples of a session.
func (r *SampleRepository) DeleteBySession(sessionID string) error {
	_, err := r.db.Exec(`DELETE FROM samples WHERE session_id = ?`, sessionID)
	return err
}

func scanSample(row rowScanner) (*Sample, error) {
	smp := &Sample{}
	var session sql.NullString
	var label int
	var data string
	if err := row.Scan(&smp.ID, &session, &label, &smp.ActorID, &data, &smp.CreatedAt); err != nil {
		return nil, err
	}
	smp.SessionID = session.String
	smp.Label = gesture.Label(label)
	if err := json.Unmarshal([]byte(data), &smp.Features); err != nil {
		return nil, fmt.Errorf("decode features of sample %d: %w", smp.ID, err)
	}
	return smp, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
