// Package config holds the recognizer's startup configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// Tracker sources.
const (
	TrackerReplay    = "replay"
	TrackerWebSocket = "websocket"
)

// maxFileSize bounds the config file.
const maxFileSize = 1 * 1024 * 1024

// Config is the root configuration. The JSON file may set any subset of
// fields; the rest keep their defaults.
type Config struct {
	ModelPath       string `json:"model_path"`
	Trigger         string `json:"trigger"`
	DBPath          string `json:"db_path"`
	ListenAddr      string `json:"listen_addr"`
	PluginDir       string `json:"plugin_dir"`
	Tracker         string `json:"tracker"`
	ReplayPath      string `json:"replay_path"`
	ReplayFPS       int    `json:"replay_fps"`
	Tray            bool   `json:"tray"`
	PluginTimeoutMs int    `json:"plugin_timeout_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ModelPath:       "model.txt",
		Trigger:         gesture.HandsUp.Name(),
		DBPath:          "mudra.db",
		ListenAddr:      ":8080",
		PluginDir:       "plugins",
		Tracker:         TrackerWebSocket,
		ReplayFPS:       30,
		PluginTimeoutMs: 5000,
	}
}

// Load reads a JSON config file over the defaults and validates the result.
// The file must have a .json extension and be at most 1 MiB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("model_path is required")
	}
	if _, err := gesture.ParseLabel(c.Trigger); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}

	switch c.Tracker {
	case TrackerWebSocket:
		if c.ListenAddr == "" {
			return fmt.Errorf("tracker %q needs listen_addr", c.Tracker)
		}
	case TrackerReplay:
		if c.ReplayPath == "" {
			return fmt.Errorf("tracker %q needs replay_path", c.Tracker)
		}
	default:
		return fmt.Errorf("unknown tracker %q", c.Tracker)
	}

	if c.ReplayFPS <= 0 {
		return fmt.Errorf("replay_fps must be positive, got %d", c.ReplayFPS)
	}
	if c.PluginTimeoutMs <= 0 {
		return fmt.Errorf("plugin_timeout_ms must be positive, got %d", c.PluginTimeoutMs)
	}
	return nil
}

// TriggerLabel returns the parsed trigger gesture.
func (c *Config) TriggerLabel() gesture.Label {
	l, err := gesture.ParseLabel(c.Trigger)
	if err != nil {
		return gesture.HandsUp
	}
	return l
}

// PluginTimeout returns the plugin timeout as a duration.
func (c *Config) PluginTimeout() time.Duration {
	return time.Duration(c.PluginTimeoutMs) * time.Millisecond
}
