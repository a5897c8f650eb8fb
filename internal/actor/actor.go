// Package actor tracks the people reported by the skeleton tracker and
// decides which one of them, if any, controls the interaction.
package actor

import (
	"math"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/skeleton"
)

// Actor is one tracked person: a rolling feature window for gesture
// classification and an independent history of torso positions.
type Actor struct {
	id         int
	features   *gesture.FeatureBuffer
	trajectory *Trajectory
	lastSeen   uint64
}

// New creates an actor with empty buffers. classifier may be nil.
func New(id int, classifier gesture.Classifier) *Actor {
	return &Actor{
		id:         id,
		features:   gesture.NewFeatureBuffer(classifier),
		trajectory: NewTrajectory(TrajectorySize),
	}
}

// ID returns the tracker-assigned identity.
func (a *Actor) ID() int {
	return a.id
}

// LastSeen returns the tracker timestamp of the most recent frame.
func (a *Actor) LastSeen() uint64 {
	return a.lastSeen
}

// Features returns the actor's feature buffer.
func (a *Actor) Features() *gesture.FeatureBuffer {
	return a.features
}

// Trajectory returns the actor's torso history.
func (a *Actor) Trajectory() *Trajectory {
	return a.trajectory
}

// AddPosition records one frame: the torso joins the trajectory and the
// full frame is fed to the feature buffer.
func (a *Actor) AddPosition(frame skeleton.Frame, timestamp uint64) {
	a.features.Update(frame)
	a.trajectory.Push(frame.Torso())
	a.lastSeen = timestamp
}

// CurrentPosition returns the latest torso position, or the origin if none.
func (a *Actor) CurrentPosition() skeleton.Point3D {
	p, _ := a.trajectory.Last()
	return p
}

// CurrentAngle returns the bearing of the actor from the sensor in radians,
// atan(X/Z) of the latest torso position, or 0 with no history.
func (a *Actor) CurrentAngle() float64 {
	p, ok := a.trajectory.Last()
	if !ok {
		return 0
	}
	return math.Atan(p.X / p.Z)
}

// CurrentDistance returns the floor-plane distance from the sensor.
func (a *Actor) CurrentDistance() float64 {
	p := a.CurrentPosition()
	return math.Sqrt(p.X*p.X + p.Z*p.Z)
}

// CurrentDirection returns the heading of the actor's movement over the
// last framesBack positions, in radians counter-clockwise from +X, normally
// in [0, 2π). Movement straight along -Z is the exception and reports -π/2.
// It returns 0 until the trajectory is full, when framesBack is out of range,
// or when the actor has not moved.
func (a *Actor) CurrentDirection(framesBack int) float64 {
	size := a.trajectory.Len()
	if size < TrajectorySize || framesBack < 1 || framesBack > size {
		return 0
	}

	latest := a.trajectory.At(size - 1)
	past := a.trajectory.At(size - framesBack)
	deltaX := latest.X - past.X
	deltaZ := latest.Z - past.Z
	if deltaX == 0 && deltaZ == 0 {
		return 0
	}

	angle := math.Atan(deltaZ / deltaX)
	switch {
	case deltaX < 0:
		angle += math.Pi
	case deltaX > 0 && deltaZ < 0:
		angle += 2 * math.Pi
	}
	return angle
}

// IsInFrame reports whether the actor is actually present. A tracker that
// lost sight of someone keeps repeating the last pose, so two identical
// consecutive torso positions count as absent.
func (a *Actor) IsInFrame() bool {
	size := a.trajectory.Len()
	if size < 2 {
		return false
	}
	return a.trajectory.At(size-1) != a.trajectory.At(size-2)
}

// CurrentGesture returns the label of the latest full window.
func (a *Actor) CurrentGesture() gesture.Label {
	return a.features.Current()
}
