package plugin

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestServe(t *testing.T) {
	handlers := map[string]Handler{
		"whoami": func(req *Request) (any, error) {
			return map[string]any{"actor": req.Actor, "gesture": req.Gesture}, nil
		},
		"noop": func(*Request) (any, error) { return nil, nil },
		"fail": func(*Request) (any, error) { return nil, errors.New("device busy") },
	}

	tests := []struct {
		name        string
		input       string
		wantSuccess bool
		wantError   string
		wantData    string
	}{
		{
			name:        "returns data",
			input:       `{"action":"whoami","gesture":"HANDS_UP","actor":3}`,
			wantSuccess: true,
			wantData:    `{"actor":3,"gesture":"HANDS_UP"}`,
		},
		{
			name:        "no data",
			input:       `{"action":"noop"}`,
			wantSuccess: true,
		},
		{
			name:      "handler error",
			input:     `{"action":"fail"}`,
			wantError: "action fail failed: device busy",
		},
		{
			name:      "unknown action",
			input:     `{"action":"dance"}`,
			wantError: "unknown action: dance",
		},
		{
			name:      "bad request",
			input:     `{`,
			wantError: "failed to decode request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := Serve(strings.NewReader(tt.input), &out, handlers); err != nil {
				t.Fatalf("Serve() error = %v", err)
			}

			var resp Response
			if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
				t.Fatalf("invalid response %q: %v", out.String(), err)
			}
			if resp.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", resp.Success, tt.wantSuccess)
			}
			if !strings.HasPrefix(resp.Error, tt.wantError) {
				t.Errorf("Error = %q, want prefix %q", resp.Error, tt.wantError)
			}
			if string(resp.Data) != tt.wantData {
				t.Errorf("Data = %s, want %s", resp.Data, tt.wantData)
			}
		})
	}
}
