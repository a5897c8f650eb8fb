// Command keyboard is a plugin that sends key presses, so gestures can drive
// a slideshow or any application with keyboard shortcuts. It uses
// AppleScript on macOS and xdotool elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/mudra/internal/plugin"
)

// keyParams selects the key to press. Params override Config.
type keyParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// modifierMap maps modifier names to AppleScript and xdotool spellings.
var modifierMap = map[string][2]string{
	"command": {"command down", "super"},
	"cmd":     {"command down", "super"},
	"option":  {"option down", "alt"},
	"alt":     {"option down", "alt"},
	"control": {"control down", "ctrl"},
	"ctrl":    {"control down", "ctrl"},
	"shift":   {"shift down", "shift"},
}

func main() {
	handlers := map[string]plugin.Handler{
		"keystroke":      keystroke,
		"next-slide":     fixedKey("Right"),
		"previous-slide": fixedKey("Left"),
	}
	if err := plugin.Serve(os.Stdin, os.Stdout, handlers); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func keystroke(req *plugin.Request) (any, error) {
	var p keyParams
	for _, raw := range []json.RawMessage{req.Config, req.Params} {
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to parse params: %w", err)
		}
	}
	if p.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	return nil, press(p.Key, p.Modifiers)
}

func fixedKey(key string) plugin.Handler {
	return func(*plugin.Request) (any, error) {
		return nil, press(key, nil)
	}
}

func press(key string, modifiers []string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		cmd = exec.Command("osascript", "-e", appleScript(key, modifiers))
	} else {
		cmd = exec.Command("xdotool", "key", xdotoolChord(key, modifiers))
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// appleScriptKeyCodes covers the named keys keystroke cannot type.
var appleScriptKeyCodes = map[string]int{"Left": 123, "Right": 124, "Down": 125, "Up": 126}

func appleScript(key string, modifiers []string) string {
	action := fmt.Sprintf("keystroke %q", key)
	if code, ok := appleScriptKeyCodes[key]; ok {
		action = fmt.Sprintf("key code %d", code)
	}

	var mods []string
	for _, m := range modifiers {
		if names, ok := modifierMap[strings.ToLower(m)]; ok {
			mods = append(mods, names[0])
		}
	}
	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, action)
	}
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, action, strings.Join(mods, ", "))
}

func xdotoolChord(key string, modifiers []string) string {
	parts := make([]string, 0, len(modifiers)+1)
	for _, m := range modifiers {
		if names, ok := modifierMap[strings.ToLower(m)]; ok {
			parts = append(parts, names[1])
		}
	}
	return strings.Join(append(parts, key), "+")
}
