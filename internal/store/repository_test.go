package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/gesture"
)

func TestSessionRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{ID: uuid.New().String(), Label: gesture.RightHandStop, Target: 40, Notes: "left side"}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Label != gesture.RightHandStop || got.Target != 40 || got.Notes != "left side" {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.CompletedAt != nil {
		t.Error("new session should not be completed")
	}

	if err := repo.Complete(sess.ID); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	got, _ = repo.GetByID(sess.ID)
	if got.CompletedAt == nil {
		t.Error("session should be completed")
	}

	list, err := repo.List()
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %d sessions, err %v", len(list), err)
	}

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
	if err := repo.Complete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Complete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSampleRepository(t *testing.T) {
	s := newTestStore(t)
	sessions := s.Sessions()
	samples := s.Samples()

	sess := &Session{ID: uuid.New().String(), Label: gesture.HandsUp, Target: 2}
	if err := sessions.Create(sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	features := make([]float64, gesture.VectorLen)
	for i := range features {
		features[i] = float64(i) / 8
	}

	first := &Sample{SessionID: sess.ID, Label: gesture.HandsUp, ActorID: 3, Features: features}
	if err := samples.Create(first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ID == 0 {
		t.Error("Create() should set the ID")
	}
	loose := &Sample{Label: gesture.Nothing, Features: []float64{1, 2}}
	if err := samples.Create(loose); err != nil {
		t.Fatalf("Create() without session error = %v", err)
	}

	got, err := samples.GetByID(first.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if diff := cmp.Diff(features, got.Features); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
	if got.SessionID != sess.ID || got.ActorID != 3 {
		t.Errorf("GetByID() = session %q actor %d", got.SessionID, got.ActorID)
	}

	t.Run("filters", func(t *testing.T) {
		tests := []struct {
			name   string
			filter SampleFilter
			want   []int64
		}{
			{"all", SampleFilter{}, []int64{first.ID, loose.ID}},
			{"by label", SampleFilter{Label: gesture.Nothing}, []int64{loose.ID}},
			{"by session", SampleFilter{SessionID: sess.ID}, []int64{first.ID}},
			{"no match", SampleFilter{Label: gesture.RightHandCome}, nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				list, err := samples.List(tt.filter)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				var ids []int64
				for _, smp := range list {
					ids = append(ids, smp.ID)
				}
				if diff := cmp.Diff(tt.want, ids); diff != "" {
					t.Errorf("List() mismatch (-want +got):\n%s", diff)
				}
			})
		}
	})

	counts, err := samples.CountByLabel()
	if err != nil {
		t.Fatalf("CountByLabel() error = %v", err)
	}
	want := map[gesture.Label]int{gesture.HandsUp: 1, gesture.Nothing: 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("CountByLabel() mismatch (-want +got):\n%s", diff)
	}

	t.Run("deleting a session cascades", func(t *testing.T) {
		if err := sessions.Delete(sess.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := samples.GetByID(first.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("sample should be gone, error = %v", err)
		}
	})

	if err := samples.Delete(loose.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := samples.Delete(loose.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSampleRepository_UnknownSession(t *testing.T) {
	s := newTestStore(t)
	err := s.Samples().Create(&Sample{SessionID: "nope", Label: gesture.HandsUp, Features: []float64{1}})
	if err == nil {
		t.Error("Create() with unknown session should violate the foreign key")
	}
}

func TestSelectionRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Selections()

	events := []*SelectionEvent{
		{ActorID: 1, Kind: SelectionLocked, Gesture: gesture.HandsUp, TrackerTS: 100},
		{ActorID: 1, Kind: SelectionReleased, Gesture: gesture.Nothing, TrackerTS: 250},
		{ActorID: 2, Kind: SelectionLocked, Gesture: gesture.HandsUp, TrackerTS: 400},
	}
	for _, e := range events {
		if err := repo.Record(e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	recent, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d events", len(recent))
	}
	if recent[0].ActorID != 2 || recent[0].TrackerTS != 400 || recent[0].Kind != SelectionLocked {
		t.Errorf("newest event = %+v", recent[0])
	}
	if recent[1].Kind != SelectionReleased || recent[1].Gesture != gesture.Nothing {
		t.Errorf("second event = %+v", recent[1])
	}
}

func TestSelectionRepository_RejectsUnknownKind(t *testing.T) {
	s := newTestStore(t)
	err := s.Selections().Record(&SelectionEvent{ActorID: 1, Kind: "stolen"})
	if err == nil {
		t.Error("Record() should reject an unknown kind")
	}
}

func TestActionRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Actions()

	a := &Action{
		ID:         uuid.New().String(),
		Gesture:    gesture.RightHandStop,
		PluginName: "system-control",
		ActionName: "pause",
		Enabled:    true,
	}
	if err := repo.Create(a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByGesture(gesture.RightHandStop)
	if err != nil {
		t.Fatalf("GetByGesture() error = %v", err)
	}
	if got == nil || got.ID != a.ID || !got.Enabled {
		t.Fatalf("GetByGesture() = %+v", got)
	}
	if string(got.Config) != "{}" {
		t.Errorf("default config = %s, want {}", got.Config)
	}

	none, err := repo.GetByGesture(gesture.HandsUp)
	if err != nil || none != nil {
		t.Errorf("GetByGesture(unbound) = %+v, %v; want nil, nil", none, err)
	}

	dup := &Action{ID: uuid.New().String(), Gesture: gesture.RightHandStop, PluginName: "x", ActionName: "y"}
	if err := repo.Create(dup); err == nil {
		t.Error("a label should only have one binding")
	}

	a.Config = json.RawMessage(`{"volume":10}`)
	a.Enabled = false
	if err := repo.Update(a); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ = repo.GetByID(a.ID)
	if got.Enabled || string(got.Config) != `{"volume":10}` {
		t.Errorf("after Update() = %+v", got)
	}

	list, err := repo.List()
	if err != nil || len(list) != 1 {
		t.Errorf("List() = %d actions, err %v", len(list), err)
	}

	if err := repo.Delete(a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(a); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() after delete error = %v, want ErrNotFound", err)
	}
}
