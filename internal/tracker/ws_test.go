package tracker

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTracker(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestWSTracker_ReceivesUpdates(t *testing.T) {
	tr := NewWSTracker(8)
	ts := httptest.NewServer(tr)
	defer ts.Close()
	defer tr.Close()

	conn := dialTracker(t, ts)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("garbage")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"timestamp":9,"events":[{"type":"appeared","actor":2}]}`)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	u, err := tr.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), u.Timestamp)
	assert.Equal(t, []Event{{Type: ActorAppeared, ActorID: 2}}, u.Events)
}

func TestWSTracker_RequestCalibration(t *testing.T) {
	tr := NewWSTracker(1)
	defer tr.Close()

	assert.ErrorIs(t, tr.RequestCalibration(1), ErrNotConnected)

	ts := httptest.NewServer(tr)
	defer ts.Close()

	conn := dialTracker(t, ts)
	defer conn.Close()

	require.Eventually(t, tr.Connected, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, tr.RequestCalibration(6))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var req struct {
		Type  string `json:"type"`
		Actor int    `json:"actor"`
	}
	require.NoError(t, conn.ReadJSON(&req))
	assert.Equal(t, "request_calibration", req.Type)
	assert.Equal(t, 6, req.Actor)
}

func TestWSTracker_Close(t *testing.T) {
	tr := NewWSTracker(1)
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	_, err := tr.Wait(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))
}
