package watcher

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jackchuka/gitfx/internal/detect"
	"github.com/jackchuka/gitfx/internal/model"
	"github.com/jackchuka/gitfx/internal/provider"
	"github.com/jackchuka/gitfx/internal/registry"
)

// Evaluator compares a repository's current snapshot with the one stored in
// the registry and dispatches whatever transitions it finds.
type Evaluator struct {
	dispatcher Dispatcher
	observer   Observer
	logger     *logrus.Entry
}

// NewEvaluator creates an Evaluator. observer may be nil.
func NewEvaluator(dispatcher Dispatcher, observer Observer, logger *logrus.Entry) *Evaluator {
	return &Evaluator{dispatcher: dispatcher, observer: observer, logger: logger}
}

type evalOptions struct {
	refresh bool // refresh before reading
	create  bool // create the registry entry if missing
}

// evaluate runs one evaluation of h against reg. A refresh error is returned
// and nothing is stored. The result is discarded if ctx was cancelled or the
// entry was removed while refreshing.
func (e *Evaluator) evaluate(ctx context.Context, reg *registry.Registry, h *provider.Handle, flags detect.Flags, opts evalOptions) ([]model.EffectEvent, error) {
	key := h.Key()

	if opts.refresh {
		if err := h.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	if ctx.Err() != nil || reg.Closed() {
		return nil, nil
	}
	entry := reg.Get(key)
	if entry == nil {
		if !opts.create {
			return nil, nil
		}
		if entry = reg.Ensure(key); entry == nil {
			return nil, nil
		}
	}

	cur := h.Snap()
	head := h.Head()
	if e.observer != nil {
		e.observer.Observed(key, head, cur)
	}

	prev, ok := entry.Snapshot()
	entry.Store(cur)
	if !ok {
		e.logger.Debugf("initialized %s: %+v", key, cur)
		return nil, nil
	}

	events := detect.Detect(prev, cur, flags)
	for _, ev := range events {
		accepted := e.dispatcher.Dispatch(detect.Payload(ev, key, head, prev, cur))
		e.logger.WithFields(logrus.Fields{
			"repo":     key,
			"event":    ev,
			"accepted": accepted,
		}).Info("transition detected")
	}
	return events, nil
}

func (e *Evaluator) forget(key string) {
	if e.observer != nil {
		e.observer.Forgotten(key)
	}
}
