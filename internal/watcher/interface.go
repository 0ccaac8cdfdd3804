// Package watcher observes repositories and feeds snapshot transitions to
// the effect dispatcher. Exactly one strategy runs per process: interval
// polling or debounced change notifications.
package watcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jackchuka/gitfx/internal/config"
	"github.com/jackchuka/gitfx/internal/detect"
	"github.com/jackchuka/gitfx/internal/model"
	"github.com/jackchuka/gitfx/internal/provider"
)

type Mode string

const (
	ModePoll  Mode = config.ModePoll
	ModeWatch Mode = config.ModeWatch
)

const (
	MinDelay                 = config.MinDelayMs * time.Millisecond
	DefaultRecoveryDelay     = time.Second
	DefaultReconcileInterval = 10 * time.Second
)

// ParseMode accepts "poll", "watch" and the aliases "event" and "events".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ModePoll.String():
		return ModePoll, nil
	case ModeWatch.String(), "event", "events":
		return ModeWatch, nil
	default:
		return "", fmt.Errorf("unknown observation mode %q (want poll or watch)", s)
	}
}

func (m Mode) String() string {
	return string(m)
}

// Scheduler runs one observation strategy until ctx is cancelled.
type Scheduler interface {
	Run(ctx context.Context) error
	Mode() Mode
}

// Dispatcher receives payloads for detected transitions.
type Dispatcher interface {
	Dispatch(p model.EffectPayload) bool
}

// Observer is told about every evaluated snapshot and every repository that
// stops being observed. Calls come from the scheduler goroutine.
type Observer interface {
	Observed(key string, head model.HeadInfo, snap model.RepoSnap)
	Forgotten(key string)
}

// Settings is re-read by the schedulers on every tick and sweep.
type Settings struct {
	PollInterval      time.Duration
	DebounceDelay     time.Duration
	ReconcileInterval time.Duration
	RecoveryDelay     time.Duration
	Flags             detect.Flags
}

// SettingsFrom extracts scheduler settings from cfg.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		PollInterval:      cfg.PollInterval(),
		DebounceDelay:     cfg.DebounceDelay(),
		ReconcileInterval: cfg.ReconcileInterval(),
		RecoveryDelay:     DefaultRecoveryDelay,
		Flags: detect.Flags{
			Push:   cfg.AutoPush,
			Pull:   cfg.AutoPull,
			Commit: cfg.AutoCommit,
		},
	}
}

// Normalize floors the poll and debounce delays at MinDelay and fills in
// defaults for unset intervals.
func (s Settings) Normalize() Settings {
	if s.PollInterval < MinDelay {
		s.PollInterval = MinDelay
	}
	if s.DebounceDelay < MinDelay {
		s.DebounceDelay = MinDelay
	}
	if s.ReconcileInterval <= 0 {
		s.ReconcileInterval = DefaultReconcileInterval
	}
	if s.RecoveryDelay <= 0 {
		s.RecoveryDelay = DefaultRecoveryDelay
	}
	return s
}

// New builds the scheduler for mode.
func New(mode Mode, p provider.Provider, eval *Evaluator, settings func() Settings, logger *logrus.Entry) (Scheduler, error) {
	switch mode {
	case ModePoll:
		return NewPoller(p, eval, settings, logger), nil
	case ModeWatch:
		return NewEventWatcher(p, eval, settings, logger), nil
	default:
		return nil, fmt.Errorf("unknown observation mode %q", mode)
	}
}
