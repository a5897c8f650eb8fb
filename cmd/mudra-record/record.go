package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/ayusman/mudra/internal/trainset"
	"github.com/ayusman/mudra/internal/tracker"
)

// session records samples from the first actor that finishes calibration.
type session struct {
	tracker  tracker.Tracker
	recorder *trainset.Recorder
	out      io.Writer
	prompt   io.Writer
	save     func(actorID int, s *trainset.Sample) error

	actor  int
	active bool
}

func (s *session) OnActorAppeared(id int) {
	if s.active {
		return
	}
	if c, ok := s.tracker.(tracker.Calibrator); ok {
		if err := c.RequestCalibration(id); err != nil {
			log.Printf("Calibration request for actor %d failed: %v", id, err)
		}
	}
}

func (s *session) OnActorLost(id int) {
	if s.active && id == s.actor {
		log.Printf("Actor %d lost, waiting for a new actor", id)
		s.active = false
		s.recorder.Restart()
	}
}

func (s *session) OnCalibrationStart(id int) {
	fmt.Fprintf(s.prompt, "Calibrating actor %d, hold the pose\n", id)
}

func (s *session) OnCalibrationComplete(id int, success bool) {
	if s.active {
		return
	}
	if !success {
		s.OnActorAppeared(id)
		return
	}
	s.actor, s.active = id, true
	fmt.Fprintf(s.prompt, "Recording actor %d\n", id)
}

// run feeds the recorded actor's frames to the recorder until every sample
// is recorded. It returns the number of samples written.
func (s *session) run(ctx context.Context) (int, error) {
	for {
		u, err := s.tracker.Wait(ctx)
		if err != nil {
			if errors.Is(err, tracker.ErrEndOfStream) || ctx.Err() != nil {
				return s.recorder.Recorded(), nil
			}
			return s.recorder.Recorded(), fmt.Errorf("tracker: %w", err)
		}

		tracker.Dispatch(u, s)
		if !s.active {
			continue
		}

		for _, f := range u.Frames {
			if f.ActorID != s.actor {
				continue
			}
			cue := s.recorder.Feed(f.Frame)
			if err := s.handle(cue); err != nil {
				return s.recorder.Recorded(), err
			}
			if cue.Kind == trainset.CueDone {
				return s.recorder.Recorded(), nil
			}
		}
	}
}

func (s *session) handle(cue trainset.Cue) error {
	if cue.Sample != nil {
		if err := trainset.WriteSample(s.out, cue.Sample.Label, cue.Sample.Features); err != nil {
			return fmt.Errorf("write sample: %w", err)
		}
		if s.save != nil {
			if err := s.save(s.actor, cue.Sample); err != nil {
				return fmt.Errorf("save sample: %w", err)
			}
		}
	}

	switch cue.Kind {
	case trainset.CueRest:
		if cue.Sample != nil {
			fmt.Fprintf(s.prompt, "Recorded %d. Rest\n", cue.Recorded)
		} else {
			fmt.Fprintln(s.prompt, "Rest")
		}
	case trainset.CueCountdown:
		fmt.Fprintf(s.prompt, "%d\n", cue.Countdown)
	case trainset.CuePerform:
		fmt.Fprintf(s.prompt, "Perform %s!\n", s.recorder.Label())
	case trainset.CueDone:
		fmt.Fprintf(s.prompt, "Done: %d samples\n", cue.Recorded)
	}
	return nil
}
