package trainset

import (
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/skeleton"
)

// Recording cycle, in tracker frames. A cycle rests for RestFrames with a
// countdown cue every CueInterval frames, then captures one full window.
const (
	RestFrames  = 150
	CueInterval = 30
	cycleStart  = gesture.WindowFrames
	cycleEnd    = cycleStart + RestFrames
)

// CueKind tells the person being recorded what to do.
type CueKind int

const (
	// CueNone means keep doing what you are doing.
	CueNone CueKind = iota
	// CueRest starts the rest period. The window just captured, if any, was
	// emitted as a sample.
	CueRest
	// CueCountdown counts down to the next capture.
	CueCountdown
	// CuePerform starts the capture window.
	CuePerform
	// CueDone means the requested number of samples has been recorded.
	CueDone
)

// Cue is the result of feeding one frame to a Recorder.
type Cue struct {
	Kind CueKind
	// Countdown is set for CueCountdown.
	Countdown int
	// Sample is set when a capture window was completed by this frame.
	Sample *Sample
	// Recorded is the number of samples emitted so far.
	Recorded int
}

// Recorder turns a stream of frames from one actor into labelled samples.
// The first cycle only rests, so the person has time to get ready.
type Recorder struct {
	label    gesture.Label
	target   int
	buffer   *gesture.FeatureBuffer
	frames   int
	recorded int
	started  bool
}

// NewRecorder records target samples of label.
func NewRecorder(label gesture.Label, target int) *Recorder {
	return &Recorder{
		label:  label,
		target: target,
		buffer: gesture.NewFeatureBuffer(nil),
		frames: cycleStart,
	}
}

// Feed processes one frame.
func (r *Recorder) Feed(frame skeleton.Frame) Cue {
	if r.Done() {
		return Cue{Kind: CueDone, Recorded: r.recorded}
	}

	cue := Cue{}
	switch {
	case r.frames == cycleStart:
		if r.started {
			cue.Sample = &Sample{Label: r.label, Features: r.buffer.Vector()}
			r.recorded++
		}
		r.started = true
		cue.Kind = CueRest
		if r.Done() {
			cue.Kind = CueDone
		}
	case r.frames == cycleEnd:
		cue.Kind = CuePerform
		r.frames = -1
	case r.frames > cycleStart && (r.frames-cycleStart)%CueInterval == 0:
		cue.Kind = CueCountdown
		cue.Countdown = (cycleEnd - r.frames) / CueInterval
	}
	cue.Recorded = r.recorded

	r.buffer.Update(frame)
	r.frames++
	return cue
}

// Restart drops the partly captured window and begins a fresh rest cycle,
// keeping the samples already recorded. Call it when the recorded person
// changes so no sample mixes two people.
func (r *Recorder) Restart() {
	r.buffer.Reset()
	r.frames = cycleStart
	r.started = false
}

// Done reports whether every requested sample was recorded.
func (r *Recorder) Done() bool {
	return r.recorded >= r.target
}

// Recorded returns the number of samples emitted.
func (r *Recorder) Recorded() int {
	return r.recorded
}

// Label returns the label being recorded.
func (r *Recorder) Label() gesture.Label {
	return r.label
}
