package tracker

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned when a request needs a tracker connection and
// none is open.
var ErrNotConnected = errors.New("no tracker connected")

// calibrationRequest is written back to the tracker connection.
type calibrationRequest struct {
	Type  string `json:"type"`
	Actor int    `json:"actor"`
}

// WSTracker is a websocket endpoint the external tracking service connects
// to. Each text message is one update in wire form. Only the latest
// connection is kept.
type WSTracker struct {
	upgrader websocket.Upgrader
	updates  chan *Update
	done     chan struct{}
	once     sync.Once

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSTracker creates an endpoint buffering up to backlog updates.
func NewWSTracker(backlog int) *WSTracker {
	if backlog <= 0 {
		backlog = 1
	}
	return &WSTracker{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Tracker runs on the local machine
			},
		},
		updates: make(chan *Update, backlog),
		done:    make(chan struct{}),
	}
}

// ServeHTTP upgrades the tracker connection and reads updates until it
// closes.
func (t *WSTracker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("tracker upgrade error: %v", err)
		return
	}
	defer conn.Close()

	t.mu.Lock()
	if t.conn != nil {
		t.conn.Close()
	}
	t.conn = conn
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		if t.conn == conn {
			t.conn = nil
		}
		t.mu.Unlock()
	}()

	log.Printf("Tracker connected from %s", r.RemoteAddr)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Tracker disconnected: %v", err)
			return
		}
		u, err := DecodeUpdate(data)
		if err != nil {
			log.Printf("Dropping tracker message: %v", err)
			continue
		}
		select {
		case t.updates <- u:
		case <-t.done:
			return
		}
	}
}

// Wait returns the next update received from the tracker.
func (t *WSTracker) Wait(ctx context.Context) (*Update, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, ErrClosed
	case u := <-t.updates:
		return u, nil
	}
}

// RequestCalibration asks the connected tracker to calibrate an actor.
func (t *WSTracker) RequestCalibration(actorID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotConnected
	}
	return t.conn.WriteJSON(calibrationRequest{Type: "request_calibration", Actor: actorID})
}

// Connected reports whether a tracker is connected.
func (t *WSTracker) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Close drops the connection and unblocks Wait.
func (t *WSTracker) Close() error {
	t.once.Do(func() {
		close(t.done)
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close()
		t.conn = nil
		return err
	}
	return nil
}
