package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jackchuka/gitfx/internal/provider"
	"github.com/jackchuka/gitfx/internal/registry"
)

type timerFire struct {
	key string
	seq uint64
}

// EventWatcher evaluates a repository once its change notifications have
// been quiet for the debounce delay. A periodic sweep attaches new
// repositories and drops vanished ones.
//
// The registry and handles are owned by the Run goroutine. Listener and
// timer callbacks only talk to it through pending/wake and fires.
type EventWatcher struct {
	provider provider.Provider
	eval     *Evaluator
	settings func() Settings
	logger   *logrus.Entry

	reg         *registry.Registry
	handles     map[string]*provider.Handle
	unsupported map[string]bool

	mu      sync.Mutex
	pending map[string]struct{}
	wake    chan struct{}
	fires   chan timerFire
	done    chan struct{}
}

var _ Scheduler = (*EventWatcher)(nil)

func NewEventWatcher(p provider.Provider, eval *Evaluator, settings func() Settings, logger *logrus.Entry) *EventWatcher {
	reg := registry.New()
	reg.OnDisposeError = disposeLogger(logger)
	return &EventWatcher{
		provider:    p,
		eval:        eval,
		settings:    settings,
		logger:      logger,
		reg:         reg,
		handles:     make(map[string]*provider.Handle),
		unsupported: make(map[string]bool),
		pending:     make(map[string]struct{}),
		wake:        make(chan struct{}, 1),
		fires:       make(chan timerFire, 64),
		done:        make(chan struct{}),
	}
}

func (w *EventWatcher) Mode() Mode {
	return ModeWatch
}

// Run reconciles immediately and then serves notifications until ctx is
// cancelled. On return every timer is stopped and every listener disposed.
func (w *EventWatcher) Run(ctx context.Context) error {
	defer w.shutdown()

	w.reconcile(ctx)
	sweep := time.NewTimer(w.settings().Normalize().ReconcileInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.wake:
			delay := w.settings().Normalize().DebounceDelay
			for _, key := range w.takePending() {
				w.arm(key, delay)
			}

		case f := <-w.fires:
			w.fire(ctx, f)

		case <-sweep.C:
			w.reconcile(ctx)
			sweep.Reset(w.settings().Normalize().ReconcileInterval)
		}
	}
}

// notify runs on the provider's goroutine.
func (w *EventWatcher) notify(key string) {
	w.mu.Lock()
	w.pending[key] = struct{}{}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *EventWatcher) takePending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	keys := make([]string, 0, len(w.pending))
	for k := range w.pending {
		keys = append(keys, k)
	}
	clear(w.pending)
	return keys
}

func (w *EventWatcher) arm(key string, delay time.Duration) {
	entry := w.reg.Get(key)
	if entry == nil {
		return
	}
	if entry.Armed() {
		w.logger.Debugf("debounce restarted for %s", key)
	}
	entry.Arm(delay, func(seq uint64) {
		select {
		case w.fires <- timerFire{key: key, seq: seq}:
		case <-w.done:
		}
	})
}

func (w *EventWatcher) fire(ctx context.Context, f timerFire) {
	entry := w.reg.Get(f.key)
	if entry == nil || !entry.Fired(f.seq) {
		return
	}
	h := w.handles[f.key]
	if h == nil {
		return
	}

	flags := w.settings().Flags
	if _, err := w.eval.evaluate(ctx, w.reg, h, flags, evalOptions{}); err != nil {
		w.logger.WithError(err).Warnf("evaluate %s", f.key)
	}
}

func (w *EventWatcher) reconcile(ctx context.Context) {
	repos, err := w.provider.Repositories(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.WithError(err).Warn("reconcile: list repositories")
		}
		return
	}

	live := make(map[string]bool, len(repos))
	for _, r := range repos {
		live[r.RootPath()] = true
	}
	for _, key := range w.reg.Prune(live) {
		w.logger.Debugf("stopped watching %s", key)
		delete(w.handles, key)
		w.eval.forget(key)
	}
	for key := range w.unsupported {
		if !live[key] {
			delete(w.unsupported, key)
		}
	}

	for _, r := range repos {
		if ctx.Err() != nil {
			return
		}
		w.attach(ctx, provider.Adapt(r))
	}
}

// attach subscribes to h once and stores its initial snapshot.
func (w *EventWatcher) attach(ctx context.Context, h *provider.Handle) {
	key := h.Key()
	if w.reg.Get(key) != nil || w.unsupported[key] {
		return
	}
	if !h.CanNotify() {
		w.unsupported[key] = true
		w.logger.Warnf("%s has no change notifications, not monitored", key)
		return
	}

	entry := w.reg.Ensure(key)
	if entry == nil {
		return
	}
	listener, err := h.OnDidChange(func() { w.notify(key) })
	if err != nil {
		w.logger.WithError(err).Warnf("subscribe to %s", key)
		w.reg.Remove(key)
		return
	}
	entry.SetListener(listener)
	w.handles[key] = h
	w.logger.Debugf("watching %s", key)

	if err := h.Refresh(ctx); err != nil {
		w.logger.WithError(err).Debugf("initial refresh of %s", key)
	}
	if _, err := w.eval.evaluate(ctx, w.reg, h, w.settings().Flags, evalOptions{}); err != nil {
		w.logger.WithError(err).Warnf("initial snapshot of %s", key)
	}
}

func (w *EventWatcher) shutdown() {
	close(w.done)
	for _, key := range w.reg.Keys() {
		w.eval.forget(key)
	}
	w.reg.Close()
	clear(w.handles)
	w.mu.Lock()
	clear(w.pending)
	w.mu.Unlock()
}
