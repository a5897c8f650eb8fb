package tracker

import (
	"context"
	"sync"
)

// MockTracker plays back scripted updates for testing.
type MockTracker struct {
	mu           sync.Mutex
	updates      []*Update
	index        int
	loop         bool
	closed       bool
	err          error
	calibrations []int
}

// NewMockTracker creates a tracker that returns updates in order, then
// ErrEndOfStream unless loop is set.
func NewMockTracker(updates []*Update, loop bool) *MockTracker {
	return &MockTracker{
		updates: updates,
		loop:    loop,
	}
}

// Wait returns the next scripted update.
func (m *MockTracker) Wait(ctx context.Context) (*Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.index >= len(m.updates) {
		if !m.loop || len(m.updates) == 0 {
			return nil, ErrEndOfStream
		}
		m.index = 0
	}

	u := m.updates[m.index]
	m.index++
	return u, nil
}

// Close stops playback.
func (m *MockTracker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// RequestCalibration records the request.
func (m *MockTracker) RequestCalibration(actorID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calibrations = append(m.calibrations, actorID)
	return nil
}

// Calibrations returns the actor ids calibration was requested for.
func (m *MockTracker) Calibrations() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calibrations...)
}

// SetError makes every following Wait fail with err.
func (m *MockTracker) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Append adds updates to the end of the script.
func (m *MockTracker) Append(updates ...*Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, updates...)
}

// Reset restarts playback from the beginning.
func (m *MockTracker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = 0
}
