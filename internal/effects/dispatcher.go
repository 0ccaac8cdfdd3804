// Package effects gates detected transitions through a global cooldown and
// forwards the survivors to a presentation sink.
package effects

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jackchuka/gitfx/internal/config"
	"github.com/jackchuka/gitfx/internal/model"
)

// Settings is read on every dispatch.
type Settings struct {
	Enabled  bool
	Cooldown time.Duration
	Duration time.Duration
}

// SettingsFrom extracts dispatcher settings from cfg.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		Enabled:  cfg.Enabled,
		Cooldown: cfg.Cooldown(),
		Duration: cfg.Duration(),
	}
}

// Dispatcher forwards at most one effect per cooldown window, across all
// repositories and event kinds. Dropped effects are never replayed.
type Dispatcher struct {
	factory  SinkFactory
	settings func() Settings
	logger   *logrus.Entry
	now      func() time.Time

	mu       sync.Mutex
	fired    bool
	lastFire time.Time
	sink     Sink
	teardown *time.Timer
	gen      uint64
	closed   bool
}

func NewDispatcher(factory SinkFactory, settings func() Settings, logger *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		factory:  factory,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Dispatch reports whether p was accepted. A sink failure does not give the
// cooldown back.
func (d *Dispatcher) Dispatch(p model.EffectPayload) bool {
	s := d.settings()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || !s.Enabled {
		return false
	}

	now := d.now()
	if d.fired && now.Sub(d.lastFire) < s.Cooldown {
		d.logger.Debugf("cooldown: dropped %s for %s", p.Event, p.RepoPath)
		return false
	}
	d.fired = true
	d.lastFire = now

	d.logger.Info(effectLine(p))

	if err := d.fireLocked(p); err != nil {
		d.logger.WithError(err).Warnf("effect %s for %s not shown", p.Event, p.RepoPath)
	}
	d.scheduleTeardownLocked(s.Duration)
	return true
}

func (d *Dispatcher) fireLocked(p model.EffectPayload) error {
	for attempt := 0; ; attempt++ {
		if d.sink == nil {
			sink, err := d.factory.Open()
			if err != nil {
				return err
			}
			d.sink = sink
		}

		err := d.sink.Fire(p)
		if err == nil || !errors.Is(err, ErrSinkClosed) || attempt > 0 {
			return err
		}
		// closed underneath us; retry once with a fresh sink
		d.sink = nil
	}
}

// The teardown timer is replaced on every accepted dispatch, so the sink
// lives until Duration after the most recent effect.
func (d *Dispatcher) scheduleTeardownLocked(after time.Duration) {
	if d.teardown != nil {
		d.teardown.Stop()
	}
	d.gen++
	gen := d.gen
	d.teardown = time.AfterFunc(after, func() { d.release(gen) })
}

func (d *Dispatcher) release(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.gen {
		return
	}
	d.teardown = nil
	d.closeSinkLocked()
}

func (d *Dispatcher) closeSinkLocked() {
	if d.sink == nil {
		return
	}
	if err := d.sink.Close(); err != nil {
		d.logger.WithError(err).Debug("closing effect sink")
	}
	d.sink = nil
}

// Close stops the teardown timer and releases the sink. Later dispatches
// are rejected.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.gen++
	if d.teardown != nil {
		d.teardown.Stop()
		d.teardown = nil
	}
	d.closeSinkLocked()
	return nil
}

// effectLine is the log line for an accepted effect.
func effectLine(p model.EffectPayload) string {
	return fmt.Sprintf("[EFFECT] %s %s :: %s :: %s -> %s",
		strings.ToUpper(string(p.Kind)), p.Event, p.Title,
		model.OrUnknown(p.Branch), model.OrUnknown(p.Upstream))
}
