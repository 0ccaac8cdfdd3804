package watcher

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/jackchuka/gitfx/internal/detect"
	"github.com/jackchuka/gitfx/internal/model"
)

type recordingDispatcher struct {
	mu       sync.Mutex
	payloads []model.EffectPayload
}

func (d *recordingDispatcher) Dispatch(p model.EffectPayload) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, p)
	return true
}

func (d *recordingDispatcher) events() []model.EffectEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.EffectEvent, len(d.payloads))
	for i, p := range d.payloads {
		out[i] = p.Event
	}
	return out
}

type recordingObserver struct {
	mu        sync.Mutex
	observed  map[string]int
	forgotten []string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{observed: make(map[string]int)}
}

func (o *recordingObserver) Observed(key string, head model.HeadInfo, snap model.RepoSnap) {
	o.mu.Lock()
	o.observed[key]++
	o.mu.Unlock()
}

func (o *recordingObserver) Forgotten(key string) {
	o.mu.Lock()
	o.forgotten = append(o.forgotten, key)
	o.mu.Unlock()
}

func (o *recordingObserver) count(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.observed[key]
}

func (o *recordingObserver) forgot(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, k := range o.forgotten {
		if k == key {
			return true
		}
	}
	return false
}

type fixture struct {
	dispatcher *recordingDispatcher
	observer   *recordingObserver
	eval       *Evaluator
	logger     *logrus.Entry
	hook       *test.Hook
}

func newFixture() *fixture {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	entry := logrus.NewEntry(logger)

	f := &fixture{
		dispatcher: &recordingDispatcher{},
		observer:   newRecordingObserver(),
		logger:     entry,
		hook:       hook,
	}
	f.eval = NewEvaluator(f.dispatcher, f.observer, entry)
	return f
}

func (f *fixture) warnings() int {
	n := 0
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			n++
		}
	}
	return n
}

func fastSettings() Settings {
	return Settings{
		PollInterval:      time.Hour,
		DebounceDelay:     MinDelay,
		ReconcileInterval: time.Hour,
		RecoveryDelay:     10 * time.Millisecond,
		Flags:             detect.AllFlags(),
	}
}

func staticSettings(s Settings) func() Settings {
	return func() Settings { return s }
}
