package actor

import (
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/skeleton"
)

// Registry owns the live actors and the single-selection state. It is not
// safe for concurrent use; the polling loop is its only caller.
type Registry struct {
	classifier gesture.Classifier
	actors     map[int]*Actor
	order      []int
	selected   int
	locked     bool
	matched    []int
}

// NewRegistry creates an empty, unselected registry. Every actor it creates
// shares classifier.
func NewRegistry(classifier gesture.Classifier) *Registry {
	return &Registry{
		classifier: classifier,
		actors:     make(map[int]*Actor),
	}
}

// AddActor creates an actor with empty buffers. It returns false if the id
// is already present.
func (r *Registry) AddActor(id int) bool {
	if _, ok := r.actors[id]; ok {
		return false
	}
	r.actors[id] = New(id, r.classifier)
	r.order = append(r.order, id)
	return true
}

// RemoveActor removes an actor, releasing the selection if it was the
// selected one. It returns false if the id is unknown.
func (r *Registry) RemoveActor(id int) bool {
	if _, ok := r.actors[id]; !ok {
		return false
	}
	delete(r.actors, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.locked && r.selected == id {
		r.ClearSelection()
	}
	return true
}

// UpdateActor feeds one frame to an actor. It returns false if the id is
// unknown.
func (r *Registry) UpdateActor(id int, frame skeleton.Frame, timestamp uint64) bool {
	a, ok := r.actors[id]
	if !ok {
		return false
	}
	a.AddPosition(frame, timestamp)
	return true
}

// FindActorsByGesture is the arbitration step. It collects every actor whose
// current gesture is target and locks onto the match only if it is unique;
// no match or several matches leave the registry unselected. It returns the
// matched ids in insertion order.
func (r *Registry) FindActorsByGesture(target gesture.Label) []int {
	r.matched = r.matched[:0]
	for _, id := range r.order {
		if r.actors[id].CurrentGesture() == target {
			r.matched = append(r.matched, id)
		}
	}

	if len(r.matched) == 1 {
		r.selected = r.matched[0]
		r.locked = true
	} else {
		r.selected = 0
		r.locked = false
	}
	return r.Matched()
}

// Selected returns the locked actor, or nil when unselected.
func (r *Registry) Selected() *Actor {
	if !r.locked {
		return nil
	}
	return r.actors[r.selected]
}

// SelectedID returns the locked actor's id and whether there is one.
func (r *Registry) SelectedID() (int, bool) {
	return r.selected, r.locked
}

// ClearSelection forces the unselected state and discards the match list.
func (r *Registry) ClearSelection() {
	r.selected = 0
	r.locked = false
	r.matched = r.matched[:0]
}

// IsTracking reports whether an actor is selected and still in frame.
func (r *Registry) IsTracking() bool {
	a := r.Selected()
	return a != nil && a.IsInFrame()
}

// Matched returns a copy of the ids that matched the last arbitration.
func (r *Registry) Matched() []int {
	return append([]int(nil), r.matched...)
}

// Actor returns the actor with the given id.
func (r *Registry) Actor(id int) (*Actor, bool) {
	a, ok := r.actors[id]
	return a, ok
}

// Actors returns the live actors in the order they were added.
func (r *Registry) Actors() []*Actor {
	out := make([]*Actor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.actors[id])
	}
	return out
}

// Len returns the number of live actors.
func (r *Registry) Len() int {
	return len(r.actors)
}
