package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jackchuka/gitfx/internal/provider"
	"github.com/jackchuka/gitfx/internal/registry"
)

// Poller refreshes and evaluates every repository on a self-rescheduling
// timer. Repositories are evaluated one at a time in provider order.
type Poller struct {
	provider provider.Provider
	eval     *Evaluator
	settings func() Settings
	logger   *logrus.Entry
	reg      *registry.Registry
}

var _ Scheduler = (*Poller)(nil)

func NewPoller(p provider.Provider, eval *Evaluator, settings func() Settings, logger *logrus.Entry) *Poller {
	reg := registry.New()
	reg.OnDisposeError = disposeLogger(logger)
	return &Poller{
		provider: p,
		eval:     eval,
		settings: settings,
		logger:   logger,
		reg:      reg,
	}
}

func (p *Poller) Mode() Mode {
	return ModePoll
}

// Run ticks immediately, then after every poll interval. A failed tick is
// logged and the next one waits the recovery delay instead.
func (p *Poller) Run(ctx context.Context) error {
	defer p.shutdown()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		s := p.settings().Normalize()
		delay := s.PollInterval
		if err := p.tick(ctx, s); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.WithError(err).Warnf("poll failed, retrying in %s", s.RecoveryDelay)
			delay = s.RecoveryDelay
		}
		timer.Reset(delay)
	}
}

func (p *Poller) tick(ctx context.Context, s Settings) error {
	repos, err := p.provider.Repositories(ctx)
	if err != nil {
		return fmt.Errorf("list repositories: %w", err)
	}

	live := make(map[string]bool, len(repos))
	for _, r := range repos {
		live[r.RootPath()] = true
	}
	for _, key := range p.reg.Prune(live) {
		p.logger.Debugf("stopped observing %s", key)
		p.eval.forget(key)
	}

	for _, r := range repos {
		if ctx.Err() != nil {
			return nil
		}
		h := provider.Adapt(r)
		if _, err := p.eval.evaluate(ctx, p.reg, h, s.Flags, evalOptions{refresh: true, create: true}); err != nil {
			return fmt.Errorf("refresh %s: %w", h.Key(), err)
		}
	}
	return nil
}

func (p *Poller) shutdown() {
	for _, key := range p.reg.Keys() {
		p.eval.forget(key)
	}
	p.reg.Close()
}

func disposeLogger(logger *logrus.Entry) func(string, error) {
	return func(key string, err error) {
		logger.WithError(err).Debugf("dispose listener for %s", key)
	}
}
