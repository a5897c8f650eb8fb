// Package app runs the recognition loop: it reads tracker updates, feeds
// every actor's feature buffer, arbitrates which actor is in control and
// fires the action bound to that actor's gestures.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/ayusman/mudra/internal/actor"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
)

// Config holds the collaborators of an App. Store and Plugins are optional.
type Config struct {
	Tracker    tracker.Tracker
	Classifier gesture.Classifier
	Trigger    gesture.Label
	Store      *store.Store
	Plugins    *plugin.Manager
}

// ActorStatus is the published view of one actor.
type ActorStatus struct {
	ID       int              `json:"id"`
	Gesture  string           `json:"gesture"`
	InFrame  bool             `json:"in_frame"`
	Position skeleton.Point3D `json:"position"`
	Angle    float64          `json:"angle"`
	Distance float64          `json:"distance"`
}

// Status is a snapshot of the recognizer taken at the end of a step.
type Status struct {
	Enabled   bool          `json:"enabled"`
	Timestamp uint64        `json:"timestamp"`
	Trigger   string        `json:"trigger"`
	Selected  *int          `json:"selected"`
	Gesture   string        `json:"gesture,omitempty"`
	Tracking  bool          `json:"tracking"`
	Matched   []int         `json:"matched"`
	Actors    []ActorStatus `json:"actors"`
}

// App is the application context. The registry is only touched from the
// goroutine running Run or Step; everything else goes through mu.
type App struct {
	tracker  tracker.Tracker
	trigger  gesture.Label
	store    *store.Store
	plugins  *plugin.Manager
	registry *actor.Registry

	// loop state
	timestamp   uint64
	lastGesture gesture.Label
	lastLocked  int
	wasLocked   bool

	mu        sync.RWMutex
	enabled   bool
	status    Status
	commands  []func()
	observers []func(Status)

	actionCtx context.Context
	inflight  sync.WaitGroup
}

// New creates an App. Arbitration starts enabled.
func New(config Config) *App {
	a := &App{
		tracker:   config.Tracker,
		trigger:   config.Trigger,
		store:     config.Store,
		plugins:   config.Plugins,
		registry:  actor.NewRegistry(config.Classifier),
		enabled:   true,
		actionCtx: context.Background(),
	}
	a.status = a.snapshot()
	a.status.Enabled = true
	return a
}

// Registry returns the actor registry. It must only be used from the loop
// goroutine.
func (a *App) Registry() *actor.Registry {
	return a.registry
}

// Trigger returns the gesture that takes control.
func (a *App) Trigger() gesture.Label {
	return a.trigger
}

// SetEnabled enables or disables arbitration and actions. Actors keep
// being tracked while disabled.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
	a.status.Enabled = enabled
}

// IsEnabled returns whether arbitration is enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Status returns the latest published snapshot.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// OnStatus registers fn to receive every snapshot. fn runs on the loop
// goroutine and must not block.
func (a *App) OnStatus(fn func(Status)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// ClearSelection releases the locked actor at the start of the next step.
func (a *App) ClearSelection() {
	a.enqueue(func() {
		a.registry.ClearSelection()
	})
}

func (a *App) enqueue(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.commands = append(a.commands, fn)
}

// Run processes tracker updates until ctx is cancelled or the stream ends,
// both of which return nil. Any other tracker error is returned.
func (a *App) Run(ctx context.Context) error {
	a.actionCtx = ctx
	defer a.inflight.Wait()

	for {
		u, err := a.tracker.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, tracker.ErrEndOfStream) {
				return nil
			}
			return fmt.Errorf("tracker: %w", err)
		}
		a.Step(u)
	}
}

// Step applies one tracker update: queued commands, then lifecycle events,
// then frames, then arbitration.
func (a *App) Step(u *tracker.Update) {
	a.drainCommands()

	a.timestamp = u.Timestamp
	tracker.Dispatch(u, a)

	for _, f := range u.Frames {
		a.registry.UpdateActor(f.ActorID, f.Frame, u.Timestamp)
	}

	if a.IsEnabled() {
		if _, locked := a.registry.SelectedID(); !locked {
			a.registry.FindActorsByGesture(a.trigger)
		} else {
			a.reportSelected()
		}
	}

	a.trackSelection()
	a.publish()
}

func (a *App) drainCommands() {
	a.mu.Lock()
	commands := a.commands
	a.commands = nil
	a.mu.Unlock()

	for _, fn := range commands {
		fn()
	}
}

// reportSelected logs the locked actor's gesture when it changes and fires
// the action bound to the new gesture.
func (a *App) reportSelected() {
	selected := a.registry.Selected()
	if selected == nil {
		return
	}
	current := selected.CurrentGesture()
	if current == a.lastGesture {
		return
	}
	a.lastGesture = current
	if current == gesture.Nothing {
		return
	}
	log.Printf("Actor %d performing: %s", selected.ID(), current)
	a.fireAction(selected.ID(), current)
}

// trackSelection logs and records lock/release transitions.
func (a *App) trackSelection() {
	id, locked := a.registry.SelectedID()
	switch {
	case locked && (!a.wasLocked || id != a.lastLocked):
		if a.wasLocked {
			a.recordSelection(a.lastLocked, store.SelectionReleased, gesture.Nothing)
		}
		log.Printf("Actor %d locked", id)
		a.recordSelection(id, store.SelectionLocked, a.trigger)
		a.lastGesture = a.trigger
	case !locked && a.wasLocked:
		log.Printf("Actor %d released", a.lastLocked)
		a.recordSelection(a.lastLocked, store.SelectionReleased, gesture.Nothing)
		a.lastGesture = gesture.Nothing
	}
	a.wasLocked, a.lastLocked = locked, id
}

func (a *App) recordSelection(actorID int, kind store.SelectionKind, label gesture.Label) {
	if a.store == nil {
		return
	}
	err := a.store.Selections().Record(&store.SelectionEvent{
		ActorID:   actorID,
		Kind:      kind,
		Gesture:   label,
		TrackerTS: a.timestamp,
	})
	if err != nil {
		log.Printf("Failed to record selection: %v", err)
	}
}

func (a *App) publish() {
	s := a.snapshot()

	a.mu.Lock()
	s.Enabled = a.enabled
	a.status = s
	observers := make([]func(Status), len(a.observers))
	copy(observers, a.observers)
	a.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

func (a *App) snapshot() Status {
	s := Status{
		Timestamp: a.timestamp,
		Trigger:   a.trigger.Name(),
		Tracking:  a.registry.IsTracking(),
		Matched:   a.registry.Matched(),
		Actors:    make([]ActorStatus, 0, a.registry.Len()),
	}
	if s.Matched == nil {
		s.Matched = []int{}
	}
	if id, ok := a.registry.SelectedID(); ok {
		s.Selected = &id
		s.Gesture = a.registry.Selected().CurrentGesture().Name()
	}
	for _, act := range a.registry.Actors() {
		s.Actors = append(s.Actors, ActorStatus{
			ID:       act.ID(),
			Gesture:  act.CurrentGesture().Name(),
			InFrame:  act.IsInFrame(),
			Position: act.CurrentPosition(),
			Angle:    finite(act.CurrentAngle()),
			Distance: finite(act.CurrentDistance()),
		})
	}
	return s
}

// finite maps NaN and infinities to 0 so the status always encodes as JSON.
// A torso reported at the sensor origin has no defined bearing.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
