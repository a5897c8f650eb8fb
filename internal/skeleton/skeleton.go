// Package skeleton provides the joint types and vector math used to turn
// tracker output into torso-relative features.
package skeleton

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Joint indices for the upper-body profile reported by the tracker.
const (
	Torso         = 0
	LeftShoulder  = 1
	LeftElbow     = 2
	LeftHand      = 3
	RightShoulder = 4
	RightElbow    = 5
	RightHand     = 6
	NumJoints     = 7
)

// FeaturesPerFrame is the number of scalar values a single frame contributes
// to the feature vector: six torso-relative joints, three axes each.
const FeaturesPerFrame = 18

// featureJoints lists the joints in feature slot order.
var featureJoints = [...]int{LeftShoulder, LeftElbow, LeftHand, RightShoulder, RightElbow, RightHand}

var jointNames = [NumJoints]string{
	Torso:         "torso",
	LeftShoulder:  "left_shoulder",
	LeftElbow:     "left_elbow",
	LeftHand:      "left_hand",
	RightShoulder: "right_shoulder",
	RightElbow:    "right_elbow",
	RightHand:     "right_hand",
}

// JointName returns the wire name of a joint index, or "" if out of range.
func JointName(joint int) string {
	if joint < 0 || joint >= NumJoints {
		return ""
	}
	return jointNames[joint]
}

// JointByName returns the joint index for a wire name.
func JointByName(name string) (int, bool) {
	for i, n := range jointNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns the point as a mathgl vector.
func (p Point3D) Vec() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// FromVec converts a mathgl vector to a Point3D.
func FromVec(v mgl64.Vec3) Point3D {
	return Point3D{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// Negate returns the point mirrored through the origin.
func (p Point3D) Negate() Point3D {
	return FromVec(p.Vec().Mul(-1))
}

// IsZero reports whether all three components are zero.
func (p Point3D) IsZero() bool {
	return p.X == 0 && p.Y == 0 && p.Z == 0
}

// Relative expresses other in a coordinate frame centred on main.
// Relative(p, p) is the origin.
func Relative(main, other Point3D) Point3D {
	return FromVec(other.Vec().Sub(main.Vec()))
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Point3D) float64 {
	return a.Vec().Sub(b.Vec()).Len()
}

// Frame holds the seven joint positions of one actor at one timestep.
type Frame struct {
	Joints [NumJoints]Point3D `json:"joints"`
}

// Torso returns the torso joint of the frame.
func (f Frame) Torso() Point3D {
	return f.Joints[Torso]
}

// Normalize returns a copy of the frame with every joint expressed relative
// to the torso, leaving the torso at the origin.
func (f Frame) Normalize() Frame {
	torso := f.Joints[Torso]
	var normalized Frame
	for i := 0; i < NumJoints; i++ {
		normalized.Joints[i] = Relative(torso, f.Joints[i])
	}
	return normalized
}

// Features returns the 18 torso-relative values of the frame in slot order:
// left shoulder, elbow, hand, then right shoulder, elbow, hand; x, y, z each.
func (f Frame) Features() [FeaturesPerFrame]float64 {
	var out [FeaturesPerFrame]float64
	torso := f.Joints[Torso]
	for i, joint := range featureJoints {
		rel := Relative(torso, f.Joints[joint])
		out[i*3] = rel.X
		out[i*3+1] = rel.Y
		out[i*3+2] = rel.Z
	}
	return out
}
