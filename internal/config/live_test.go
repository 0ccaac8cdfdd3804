package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestLive_ReloadAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cooldown_ms: 500\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	live := NewLive(path, cfg, func(c *Config) { c.Mode = ModeWatch }, discardLogger())

	if live.Get().Mode != ModeWatch {
		t.Errorf("Mode = %q, want override applied on construction", live.Get().Mode)
	}

	if err := os.WriteFile(path, []byte("cooldown_ms: 2500\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := live.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if live.Get().Cooldown() != 2500*time.Millisecond {
		t.Errorf("Cooldown() = %v, want 2.5s", live.Get().Cooldown())
	}
	if live.Get().Mode != ModeWatch {
		t.Error("override lost on reload")
	}
}

func TestLive_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	live := NewLive(path, NewConfig(), nil, discardLogger())

	if err := os.WriteFile(path, []byte("poll_ms: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := live.Reload(); err == nil {
		t.Fatal("Reload() should fail on invalid YAML")
	}
	if live.Get().PollMs != 500 {
		t.Errorf("PollMs = %d, want previous value 500", live.Get().PollMs)
	}
}

func TestLive_WatchPicksUpWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("duration_ms: 1000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	live := NewLive(path, cfg, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- live.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("duration_ms: 4000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if live.Get().Duration() == 4*time.Second {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("Duration() = %v after write, want 4s", live.Get().Duration())
}

func TestLive_WatchMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.yaml")
	live := NewLive(path, NewConfig(), nil, discardLogger())

	if err := live.Watch(context.Background()); err == nil {
		t.Error("Watch() should fail when the config directory does not exist")
	}
}
