package tray

import (
	"testing"

	"github.com/ayusman/mudra/internal/app"
)

func TestTitles(t *testing.T) {
	three := 3

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"enabled", toggleTitle(true), "● Enabled"},
		{"disabled", toggleTitle(false), "○ Disabled"},
		{"nobody selected", selectedTitle(nil), "Control: nobody"},
		{"actor selected", selectedTitle(&three), "Control: actor 3"},
		{"no gesture", gestureTitle(""), "Gesture: none"},
		{"known gesture", gestureTitle("RIGHT_HAND_STOP"), "Gesture: Stop"},
		{"unknown gesture", gestureTitle("WAVE"), "Gesture: WAVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestSetStatus_BeforeReady(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Fatal("new tray should be enabled")
	}

	tr.SetStatus(app.Status{Enabled: false})
	if tr.IsEnabled() {
		t.Error("SetStatus should follow the application's enabled state")
	}
}
