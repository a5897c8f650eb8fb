// Command system-control is a plugin for volume and media playback. It uses
// AppleScript on macOS and pactl/playerctl on Linux.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/ayusman/mudra/internal/plugin"
)

// command is one way to perform an action: a program and its arguments.
type command []string

// actions maps action names to the command for each platform.
var actions = map[string]map[string]command{
	"volume-up": {
		"darwin": {"osascript", "-e", `set volume output volume ((output volume of (get volume settings)) + 10)`},
		"linux":  {"pactl", "set-sink-volume", "@DEFAULT_SINK@", "+10%"},
	},
	"volume-down": {
		"darwin": {"osascript", "-e", `set volume output volume ((output volume of (get volume settings)) - 10)`},
		"linux":  {"pactl", "set-sink-volume", "@DEFAULT_SINK@", "-10%"},
	},
	"volume-mute": {
		"darwin": {"osascript", "-e", `set volume output muted (not (output muted of (get volume settings)))`},
		"linux":  {"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"},
	},
	"media-play-pause": {
		"darwin": {"osascript", "-e", `tell application "System Events" to key code 100`},
		"linux":  {"playerctl", "play-pause"},
	},
	"media-next": {
		"darwin": {"osascript", "-e", `tell application "System Events" to key code 101`},
		"linux":  {"playerctl", "next"},
	},
	"media-prev": {
		"darwin": {"osascript", "-e", `tell application "System Events" to key code 98`},
		"linux":  {"playerctl", "previous"},
	},
}

func main() {
	if err := plugin.Serve(os.Stdin, os.Stdout, handlers(runtime.GOOS, run)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// handlers builds the handler table for goos, executing commands with exec.
func handlers(goos string, exec func(command) error) map[string]plugin.Handler {
	out := make(map[string]plugin.Handler, len(actions))
	for name, byOS := range actions {
		cmd, ok := byOS[goos]
		if !ok {
			continue
		}
		out[name] = func(req *plugin.Request) (any, error) {
			if err := exec(cmd); err != nil {
				return nil, err
			}
			return map[string]any{"action": name, "gesture": req.Gesture, "actor": req.Actor}, nil
		}
	}
	return out
}

func run(c command) error {
	output, err := exec.Command(c[0], c[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
