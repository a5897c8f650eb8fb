package gesture

import (
	"github.com/ayusman/mudra/internal/skeleton"
)

// Window constants. At the tracker's 30 fps a full window is two seconds.
const (
	// WindowFrames is the number of frames in a full feature window.
	WindowFrames = 60
	// VectorLen is the length of a full feature vector.
	VectorLen = WindowFrames * skeleton.FeaturesPerFrame
)

// Classifier maps a full feature vector to a raw model class.
// Implementations must be safe for concurrent use by multiple buffers.
type Classifier interface {
	Predict(features []float64) int
}

// FeatureBuffer keeps the rolling feature window for one actor.
//
// Frames are stored in a ring of WindowFrames slots. head is the physical
// slot holding the oldest frame; the logical vector starts there.
type FeatureBuffer struct {
	data       []float64
	head       int
	frames     int // saturates at WindowFrames
	classifier Classifier
	history    *labelRing
	scratch    []float64
}

// NewFeatureBuffer creates an empty buffer. classifier may be nil, in which
// case the buffer only collects features and Classify returns Nothing.
func NewFeatureBuffer(classifier Classifier) *FeatureBuffer {
	return &FeatureBuffer{
		data:       make([]float64, VectorLen),
		classifier: classifier,
		history:    newLabelRing(WindowFrames),
	}
}

// Update appends the torso-relative features of frame to the window,
// evicting the oldest frame once the window is full, and records a new
// classification when a classifier is present.
func (b *FeatureBuffer) Update(frame skeleton.Frame) {
	values := frame.Features()

	var slot int
	if b.frames < WindowFrames {
		slot = (b.head + b.frames) % WindowFrames
		b.frames++
	} else {
		slot = b.head
		b.head = (b.head + 1) % WindowFrames
	}
	copy(b.data[slot*skeleton.FeaturesPerFrame:], values[:])

	if b.classifier != nil {
		b.history.push(b.Classify())
	}
}

// Frames returns how many frames the window holds, at most WindowFrames.
func (b *FeatureBuffer) Frames() int {
	return b.frames
}

// Full reports whether the window holds WindowFrames frames.
func (b *FeatureBuffer) Full() bool {
	return b.frames == WindowFrames
}

// Classify returns the label for the current window. It returns Nothing
// until the window is full or when no classifier is set.
func (b *FeatureBuffer) Classify() Label {
	if !b.Full() || b.classifier == nil {
		return Nothing
	}
	b.scratch = b.AppendVector(b.scratch[:0])
	return LabelFromClass(b.classifier.Predict(b.scratch))
}

// Current returns the most recently recorded label, or Nothing.
func (b *FeatureBuffer) Current() Label {
	if l, ok := b.history.last(); ok {
		return l
	}
	return Nothing
}

// History returns the recorded labels, oldest first.
func (b *FeatureBuffer) History() []Label {
	return b.history.slice()
}

// Vector returns a copy of the feature vector in logical order. Slots that
// have not been filled yet are zero.
func (b *FeatureBuffer) Vector() []float64 {
	return b.AppendVector(make([]float64, 0, VectorLen))
}

// AppendVector appends the feature vector in logical order to dst.
func (b *FeatureBuffer) AppendVector(dst []float64) []float64 {
	split := b.head * skeleton.FeaturesPerFrame
	dst = append(dst, b.data[split:]...)
	return append(dst, b.data[:split]...)
}

// Reset clears the window and label history.
func (b *FeatureBuffer) Reset() {
	clear(b.data)
	b.head = 0
	b.frames = 0
	b.history = newLabelRing(WindowFrames)
}

// labelRing is a fixed-capacity ring of labels.
type labelRing struct {
	data []Label
	pos  int
	full bool
}

func newLabelRing(capacity int) *labelRing {
	return &labelRing{data: make([]Label, capacity)}
}

func (r *labelRing) push(l Label) {
	r.data[r.pos] = l
	r.pos++
	if r.pos >= len(r.data) {
		r.pos = 0
		r.full = true
	}
}

func (r *labelRing) len() int {
	if r.full {
		return len(r.data)
	}
	return r.pos
}

func (r *labelRing) last() (Label, bool) {
	if r.len() == 0 {
		return Nothing, false
	}
	idx := r.pos - 1
	if idx < 0 {
		idx = len(r.data) - 1
	}
	return r.data[idx], true
}

// slice returns the ring contents in insertion order.
func (r *labelRing) slice() []Label {
	out := make([]Label, r.len())
	if r.full {
		copy(out, r.data[r.pos:])
		copy(out[len(r.data)-r.pos:], r.data[:r.pos])
	} else {
		copy(out, r.data[:r.pos])
	}
	return out
}
