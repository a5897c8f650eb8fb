package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
)

const (
	clientBacklog = 16
	writeTimeout  = time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatusHandler pushes recognizer status snapshots to websocket clients.
// Broadcast never blocks: a client that falls behind loses snapshots.
type StatusHandler struct {
	current func() app.Status

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

// NewStatusHandler creates a StatusHandler. When current is set, every new
// client first receives the snapshot it returns.
func NewStatusHandler(current func() app.Status) *StatusHandler {
	return &StatusHandler{
		current: current,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan []byte, clientBacklog)
	if h.current != nil {
		if msg, err := json.Marshal(h.current()); err == nil {
			send <- msg
		}
	}

	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(conn, send, done)

	// Reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	close(send)
	<-done
}

func (h *StatusHandler) writeLoop(conn *websocket.Conn, send <-chan []byte, done chan<- struct{}) {
	defer close(done)
	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			for range send {
			}
			return
		}
	}
}

// Broadcast sends a snapshot to every connected client.
func (h *StatusHandler) Broadcast(status app.Status) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(status)
	if err != nil {
		log.Printf("status encode error: %v", err)
		return
	}
	for _, send := range h.clients {
		select {
		case send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *StatusHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
