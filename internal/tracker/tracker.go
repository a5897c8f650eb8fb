// Package tracker defines the contract with the external skeleton tracker and
// provides the sources the application can read updates from.
package tracker

import (
	"context"
	"errors"

	"github.com/ayusman/mudra/internal/skeleton"
)

var (
	// ErrEndOfStream is returned by Wait when a finite source is exhausted.
	ErrEndOfStream = errors.New("end of tracker stream")
	// ErrClosed is returned by Wait after Close.
	ErrClosed = errors.New("tracker closed")
)

// EventType identifies an actor lifecycle event.
type EventType string

const (
	// ActorAppeared is emitted when the tracker starts seeing a new person.
	ActorAppeared EventType = "appeared"
	// ActorLost is emitted when a person leaves the scene.
	ActorLost EventType = "lost"
	// CalibrationStart is emitted when pose calibration begins.
	CalibrationStart EventType = "calibration_start"
	// CalibrationComplete is emitted when calibration ends; see Event.Success.
	CalibrationComplete EventType = "calibration_complete"
)

// Event is one lifecycle notification.
type Event struct {
	Type    EventType
	ActorID int
	// Success is only meaningful for CalibrationComplete.
	Success bool
}

// ActorFrame is one actor's joints for a timestep.
type ActorFrame struct {
	ActorID int
	Frame   skeleton.Frame
}

// Update is everything the tracker reports for one timestep. Events must be
// applied before Frames.
type Update struct {
	Timestamp uint64
	Events    []Event
	Frames    []ActorFrame
}

// Tracker is a source of updates. Wait blocks until the next timestep.
type Tracker interface {
	Wait(ctx context.Context) (*Update, error)
	Close() error
}

// Calibrator is implemented by trackers that calibrate on request.
type Calibrator interface {
	RequestCalibration(actorID int) error
}

// EventHandler receives lifecycle events.
type EventHandler interface {
	OnActorAppeared(actorID int)
	OnActorLost(actorID int)
	OnCalibrationStart(actorID int)
	OnCalibrationComplete(actorID int, success bool)
}

// Dispatch delivers the events of u to h in order. Unknown event types are
// skipped.
func Dispatch(u *Update, h EventHandler) {
	if u == nil {
		return
	}
	for _, ev := range u.Events {
		switch ev.Type {
		case ActorAppeared:
			h.OnActorAppeared(ev.ActorID)
		case ActorLost:
			h.OnActorLost(ev.ActorID)
		case CalibrationStart:
			h.OnCalibrationStart(ev.ActorID)
		case CalibrationComplete:
			h.OnCalibrationComplete(ev.ActorID, ev.Success)
		}
	}
}
