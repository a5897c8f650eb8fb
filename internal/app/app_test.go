package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
)

// poseClassifier reads the class from the left shoulder X offset of the
// newest frame in the window.
type poseClassifier struct{}

func (poseClassifier) Predict(features []float64) int {
	return int(features[len(features)-skeleton.FeaturesPerFrame])
}

func poseFrame(step int, label gesture.Label) skeleton.Frame {
	var f skeleton.Frame
	torso := skeleton.Point3D{X: float64(step) * 0.01, Z: 2}
	f.Joints[skeleton.Torso] = torso
	f.Joints[skeleton.LeftShoulder] = skeleton.Point3D{X: torso.X + float64(label.Class()), Z: torso.Z}
	return f
}

// poses builds one update where each actor holds the given pose.
func poses(ts uint64, labels map[int]gesture.Label) *tracker.Update {
	u := &tracker.Update{Timestamp: ts}
	for id := 0; id < 8; id++ {
		if l, ok := labels[id]; ok {
			u.Frames = append(u.Frames, tracker.ActorFrame{ActorID: id, Frame: poseFrame(int(ts), l)})
		}
	}
	return u
}

func calibrated(ts uint64, ids ...int) *tracker.Update {
	u := &tracker.Update{Timestamp: ts}
	for _, id := range ids {
		u.Events = append(u.Events, tracker.Event{Type: tracker.CalibrationComplete, ActorID: id, Success: true})
	}
	return u
}

// fill steps the app through a full window of poses.
func fill(a *App, from uint64, labels map[int]gesture.Label) uint64 {
	for i := 0; i < gesture.WindowFrames; i++ {
		a.Step(poses(from, labels))
		from++
	}
	return from
}

func newTestApp(t *testing.T, cfg Config) *App {
	t.Helper()
	if cfg.Tracker == nil {
		cfg.Tracker = tracker.NewMockTracker(nil, false)
	}
	if cfg.Classifier == nil {
		cfg.Classifier = poseClassifier{}
	}
	if cfg.Trigger == 0 {
		cfg.Trigger = gesture.HandsUp
	}
	return New(cfg)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestApp_Lifecycle(t *testing.T) {
	mock := tracker.NewMockTracker(nil, false)
	a := newTestApp(t, Config{Tracker: mock})

	a.Step(&tracker.Update{Timestamp: 1, Events: []tracker.Event{
		{Type: tracker.ActorAppeared, ActorID: 1},
		{Type: tracker.ActorAppeared, ActorID: 2},
		{Type: tracker.CalibrationStart, ActorID: 1},
		{Type: tracker.CalibrationComplete, ActorID: 1, Success: true},
		{Type: tracker.CalibrationComplete, ActorID: 2, Success: false},
	}})

	assert.Equal(t, []int{1, 2, 2}, mock.Calibrations())
	assert.Equal(t, 1, a.Registry().Len())

	a.Step(calibrated(2, 2))
	assert.Equal(t, 2, a.Registry().Len())

	a.Step(&tracker.Update{Timestamp: 3, Events: []tracker.Event{{Type: tracker.ActorLost, ActorID: 1}}})
	_, ok := a.Registry().Actor(1)
	assert.False(t, ok)
	assert.Equal(t, 1, a.Registry().Len())
}

func TestApp_EventsApplyBeforeFrames(t *testing.T) {
	a := newTestApp(t, Config{})

	u := poses(1, map[int]gesture.Label{4: gesture.Nothing})
	u.Events = []tracker.Event{{Type: tracker.CalibrationComplete, ActorID: 4, Success: true}}
	a.Step(u)

	act, ok := a.Registry().Actor(4)
	require.True(t, ok)
	assert.Equal(t, 1, act.Features().Frames())
	assert.Equal(t, uint64(1), act.LastSeen())
}

func TestApp_Arbitration(t *testing.T) {
	tests := []struct {
		name     string
		labels   map[int]gesture.Label
		selected *int
	}{
		{"single trigger locks", map[int]gesture.Label{1: gesture.HandsUp, 2: gesture.Nothing}, intPtr(1)},
		{"ambiguous trigger stays unselected", map[int]gesture.Label{1: gesture.HandsUp, 2: gesture.HandsUp}, nil},
		{"no trigger stays unselected", map[int]gesture.Label{1: gesture.RightHandStop, 2: gesture.Nothing}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, Config{})
			a.Step(calibrated(0, 1, 2))
			fill(a, 1, tt.labels)

			status := a.Status()
			assert.Equal(t, tt.selected, status.Selected)
			assert.Len(t, status.Actors, 2)
		})
	}
}

func TestApp_NoSelectionBeforeWindowFills(t *testing.T) {
	a := newTestApp(t, Config{})
	a.Step(calibrated(0, 1))

	for ts := uint64(1); ts < gesture.WindowFrames; ts++ {
		a.Step(poses(ts, map[int]gesture.Label{1: gesture.HandsUp}))
	}
	assert.Nil(t, a.Status().Selected)

	a.Step(poses(gesture.WindowFrames, map[int]gesture.Label{1: gesture.HandsUp}))
	require.NotNil(t, a.Status().Selected)
	assert.Equal(t, 1, *a.Status().Selected)
	assert.Equal(t, "HANDS_UP", a.Status().Gesture)
	assert.True(t, a.Status().Tracking)
}

func TestApp_LockedActorKeepsControl(t *testing.T) {
	a := newTestApp(t, Config{})
	a.Step(calibrated(0, 1, 2))
	ts := fill(a, 1, map[int]gesture.Label{1: gesture.HandsUp, 2: gesture.Nothing})

	// Another actor raising their hands does not steal a held lock.
	a.Step(poses(ts, map[int]gesture.Label{1: gesture.RightHandCome, 2: gesture.HandsUp}))

	require.NotNil(t, a.Status().Selected)
	assert.Equal(t, 1, *a.Status().Selected)
	assert.Equal(t, "RIGHT_HAND_COME", a.Status().Gesture)
}

func TestApp_LosingLockedActorReleases(t *testing.T) {
	s := newTestStore(t)
	a := newTestApp(t, Config{Store: s})
	a.Step(calibrated(0, 1, 2))
	ts := fill(a, 1, map[int]gesture.Label{1: gesture.HandsUp, 2: gesture.Nothing})
	require.NotNil(t, a.Status().Selected)

	a.Step(&tracker.Update{Timestamp: ts, Events: []tracker.Event{{Type: tracker.ActorLost, ActorID: 1}}})
	assert.Nil(t, a.Status().Selected)

	events, err := s.Selections().Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, store.SelectionReleased, events[0].Kind)
	assert.Equal(t, ts, events[0].TrackerTS)
	assert.Equal(t, store.SelectionLocked, events[1].Kind)
	assert.Equal(t, gesture.HandsUp, events[1].Gesture)
	assert.Equal(t, 1, events[1].ActorID)
}

func TestApp_ClearSelectionIsQueued(t *testing.T) {
	a := newTestApp(t, Config{})
	a.Step(calibrated(0, 1))
	ts := fill(a, 1, map[int]gesture.Label{1: gesture.HandsUp})
	require.NotNil(t, a.Status().Selected)

	a.ClearSelection()
	assert.NotNil(t, a.Status().Selected, "cleared before the next step")

	a.Step(poses(ts, map[int]gesture.Label{1: gesture.Nothing}))
	assert.Nil(t, a.Status().Selected)
	assert.Empty(t, a.Status().Matched)
}

func TestApp_DisabledSkipsArbitration(t *testing.T) {
	a := newTestApp(t, Config{})
	a.SetEnabled(false)
	assert.False(t, a.IsEnabled())

	a.Step(calibrated(0, 1))
	ts := fill(a, 1, map[int]gesture.Label{1: gesture.HandsUp})
	assert.Nil(t, a.Status().Selected)
	assert.False(t, a.Status().Enabled)

	a.SetEnabled(true)
	a.Step(poses(ts, map[int]gesture.Label{1: gesture.HandsUp}))
	assert.NotNil(t, a.Status().Selected)
	assert.True(t, a.Status().Enabled)
}

func TestApp_OnStatus(t *testing.T) {
	a := newTestApp(t, Config{})

	var got []Status
	a.OnStatus(func(s Status) { got = append(got, s) })

	a.Step(calibrated(7, 3))
	a.Step(poses(8, map[int]gesture.Label{3: gesture.Nothing}))

	require.Len(t, got, 2)
	assert.Equal(t, uint64(8), got[1].Timestamp)
	assert.Equal(t, "HANDS_UP", got[1].Trigger)
	require.Len(t, got[1].Actors, 1)
	assert.Equal(t, 3, got[1].Actors[0].ID)
	assert.Equal(t, "NOTHING", got[1].Actors[0].Gesture)
}

func TestApp_StatusEncodesActorAtOrigin(t *testing.T) {
	a := newTestApp(t, Config{})

	a.Step(calibrated(1, 5))
	a.Step(&tracker.Update{Timestamp: 2, Frames: []tracker.ActorFrame{{ActorID: 5, Frame: skeleton.Frame{}}}})

	st := a.Status()
	require.Len(t, st.Actors, 1)
	assert.Equal(t, 0.0, st.Actors[0].Angle)
	assert.Equal(t, 0.0, st.Actors[0].Distance)

	data, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"angle":0`)
}

func TestApp_Run(t *testing.T) {
	t.Run("end of stream", func(t *testing.T) {
		mock := tracker.NewMockTracker([]*tracker.Update{calibrated(1, 1), poses(2, map[int]gesture.Label{1: gesture.Nothing})}, false)
		a := newTestApp(t, Config{Tracker: mock})

		require.NoError(t, a.Run(context.Background()))
		assert.Equal(t, uint64(2), a.Status().Timestamp)
	})

	t.Run("tracker failure", func(t *testing.T) {
		mock := tracker.NewMockTracker(nil, false)
		boom := errors.New("sensor unplugged")
		mock.SetError(boom)

		err := newTestApp(t, Config{Tracker: mock}).Run(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		mock := tracker.NewMockTracker([]*tracker.Update{poses(1, nil)}, true)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.NoError(t, newTestApp(t, Config{Tracker: mock}).Run(ctx))
	})
}

func TestApp_FiresBoundAction(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "request.json")
	pluginDir := filepath.Join(dir, "plugins", "recorder")
	require.NoError(t, os.MkdirAll(pluginDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.json"),
		[]byte(`{"name":"recorder","executable":"run.sh","actions":["save"]}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "run.sh"),
		[]byte("#!/bin/sh\ncat > '"+out+"'\necho '{\"success\":true}'\n"), 0755))

	plugins := plugin.NewManager(filepath.Join(dir, "plugins"), plugin.NewExecutor(5*time.Second))
	require.NoError(t, plugins.Discover())

	s := newTestStore(t)
	require.NoError(t, s.Actions().Create(&store.Action{
		ID:         "stop-binding",
		Gesture:    gesture.RightHandStop,
		PluginName: "recorder",
		ActionName: "save",
		Config:     json.RawMessage(`{"slot":2}`),
		Enabled:    true,
	}))

	a := newTestApp(t, Config{Store: s, Plugins: plugins})
	a.Step(calibrated(0, 5))
	ts := fill(a, 1, map[int]gesture.Label{5: gesture.HandsUp})
	require.NotNil(t, a.Status().Selected)

	a.Step(poses(ts, map[int]gesture.Label{5: gesture.RightHandStop}))
	a.Step(poses(ts+1, map[int]gesture.Label{5: gesture.RightHandStop}))
	a.Wait()

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var req plugin.Request
	require.NoError(t, json.Unmarshal(data, &req))
	assert.Equal(t, "save", req.Action)
	assert.Equal(t, "RIGHT_HAND_STOP", req.Gesture)
	assert.Equal(t, 5, req.Actor)
	assert.Equal(t, ts, req.Timestamp)
	assert.JSONEq(t, `{"slot":2}`, string(req.Config))
}

func intPtr(v int) *int { return &v }
