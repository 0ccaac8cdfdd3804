// internal/config/config.go
package config

import (
	"os"
	"strings"
	"time"
)

// MinDelayMs is the floor applied to poll_ms and debounce_ms.
const MinDelayMs = 200

// EnvMode overrides the configured observation mode.
const EnvMode = "GITFX_MODE"

const (
	ModePoll  = "poll"
	ModeWatch = "watch"
)

type Config struct {
	// Scanning
	ScanPaths      []string      `yaml:"scan_paths"`
	IgnorePatterns []string      `yaml:"ignore_patterns"`
	MaxDepth       int           `yaml:"max_depth"`
	RescanInterval time.Duration `yaml:"rescan_interval"`

	// Observation
	Mode        string `yaml:"mode"`
	PollMs      int    `yaml:"poll_ms"`
	DebounceMs  int    `yaml:"debounce_ms"`
	ReconcileMs int    `yaml:"reconcile_ms"`

	// Detection
	AutoPush   bool `yaml:"auto_push"`
	AutoPull   bool `yaml:"auto_pull"`
	AutoCommit bool `yaml:"auto_commit"`

	// Effects
	Enabled    bool `yaml:"enabled"`
	CooldownMs int  `yaml:"cooldown_ms"`
	DurationMs int  `yaml:"duration_ms"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	ignore *ignoreMatcher
}

func NewConfig() *Config {
	return &Config{
		ScanPaths: []string{},
		IgnorePatterns: []string{
			"**/node_modules/**",
			"**/vendor/**",
			"**/.cache/**",
			"**/.npm/**",
			"**/.pnpm/**",
			"**/__pycache__/**",
			"**/.venv/**",
			"**/venv/**",
			"**/.tox/**",
			"**/target/**",
			"**/build/**",
			"**/dist/**",
		},
		MaxDepth:       10,
		RescanInterval: 10 * time.Second,
		Mode:           ModePoll,
		PollMs:         500,
		DebounceMs:     400,
		ReconcileMs:    10000,
		AutoPush:       true,
		AutoPull:       true,
		AutoCommit:     true,
		Enabled:        true,
		CooldownMs:     1200,
		DurationMs:     2200,
		LogLevel:       "info",
		ignore:         &ignoreMatcher{},
	}
}

func (c *Config) PollInterval() time.Duration {
	return clampMs(c.PollMs)
}

func (c *Config) DebounceDelay() time.Duration {
	return clampMs(c.DebounceMs)
}

func (c *Config) ReconcileInterval() time.Duration {
	if c.ReconcileMs <= 0 {
		return 10 * time.Second
	}
	return clampMs(c.ReconcileMs)
}

func (c *Config) Cooldown() time.Duration {
	if c.CooldownMs < 0 {
		return 0
	}
	return time.Duration(c.CooldownMs) * time.Millisecond
}

func (c *Config) Duration() time.Duration {
	if c.DurationMs < 0 {
		return 0
	}
	return time.Duration(c.DurationMs) * time.Millisecond
}

// ObservationMode returns the strategy to run, honoring GITFX_MODE.
func (c *Config) ObservationMode() string {
	mode := c.Mode
	if env := os.Getenv(EnvMode); env != "" {
		mode = env
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeWatch, "event", "events":
		return ModeWatch
	default:
		return ModePoll
	}
}

func clampMs(ms int) time.Duration {
	if ms < MinDelayMs {
		ms = MinDelayMs
	}
	return time.Duration(ms) * time.Millisecond
}
