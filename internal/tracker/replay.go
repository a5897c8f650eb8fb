package tracker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// maxReplayLine bounds one recorded update.
const maxReplayLine = 1024 * 1024

// ReplayTracker reads recorded updates, one JSON object per line.
type ReplayTracker struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	closer  io.Closer
	ticker  *time.Ticker
	line    int
	closed  bool
}

// OpenReplay opens a recording file. fps paces playback; 0 replays as fast
// as Wait is called.
func OpenReplay(path string, fps int) (*ReplayTracker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	t := NewReplayTracker(f, fps)
	t.closer = f
	return t, nil
}

// NewReplayTracker reads updates from r.
func NewReplayTracker(r io.Reader, fps int) *ReplayTracker {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxReplayLine)

	t := &ReplayTracker{scanner: scanner}
	if fps > 0 {
		t.ticker = time.NewTicker(time.Second / time.Duration(fps))
	}
	return t
}

// Wait returns the next recorded update, ErrEndOfStream at the end of the
// recording.
func (t *ReplayTracker) Wait(ctx context.Context) (*Update, error) {
	if t.ticker != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.ticker.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrClosed
	}
	for t.scanner.Scan() {
		t.line++
		text := strings.TrimSpace(t.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		u, err := DecodeUpdate([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("replay line %d: %w", t.line, err)
		}
		return u, nil
	}
	if err := t.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	return nil, ErrEndOfStream
}

// Close stops playback and closes the underlying file.
func (t *ReplayTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if t.ticker != nil {
		t.ticker.Stop()
	}
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
