package actor

import "github.com/ayusman/mudra/internal/skeleton"

// TrajectorySize is the number of torso positions kept per actor.
const TrajectorySize = 60

// Trajectory is a fixed-capacity ring of torso positions.
type Trajectory struct {
	data []skeleton.Point3D
	pos  int
	full bool
}

// NewTrajectory creates an empty trajectory with the given capacity.
func NewTrajectory(capacity int) *Trajectory {
	return &Trajectory{
		data: make([]skeleton.Point3D, capacity),
	}
}

// Push adds a position, evicting the oldest one when full.
func (t *Trajectory) Push(p skeleton.Point3D) {
	t.data[t.pos] = p
	t.pos++
	if t.pos >= len(t.data) {
		t.pos = 0
		t.full = true
	}
}

// Len returns the number of stored positions.
func (t *Trajectory) Len() int {
	if t.full {
		return len(t.data)
	}
	return t.pos
}

// Cap returns the capacity of the trajectory.
func (t *Trajectory) Cap() int {
	return len(t.data)
}

// At returns the i-th stored position, oldest first. i must be in [0, Len()).
func (t *Trajectory) At(i int) skeleton.Point3D {
	if !t.full {
		return t.data[i]
	}
	return t.data[(t.pos+i)%len(t.data)]
}

// Last returns the most recent position.
func (t *Trajectory) Last() (skeleton.Point3D, bool) {
	n := t.Len()
	if n == 0 {
		return skeleton.Point3D{}, false
	}
	return t.At(n - 1), true
}

// Slice returns the positions in insertion order.
func (t *Trajectory) Slice() []skeleton.Point3D {
	out := make([]skeleton.Point3D, t.Len())
	if t.full {
		copy(out, t.data[t.pos:])
		copy(out[len(t.data)-t.pos:], t.data[:t.pos])
	} else {
		copy(out, t.data[:t.pos])
	}
	return out
}
