package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Live holds the active configuration and swaps it when the file on disk
// changes. Readers call Get on every use so changes apply without a restart.
type Live struct {
	path     string
	apply    func(*Config)
	debounce time.Duration
	logger   *logrus.Entry

	cur   atomic.Pointer[Config]
	mu    sync.Mutex
	timer *time.Timer
}

// NewLive wraps cfg. apply, when non-nil, is re-run on every reload so
// command-line overrides survive edits to the file.
func NewLive(path string, cfg *Config, apply func(*Config), logger *logrus.Entry) *Live {
	if apply != nil {
		apply(cfg)
	}
	l := &Live{
		path:     path,
		apply:    apply,
		debounce: 100 * time.Millisecond,
		logger:   logger,
	}
	l.cur.Store(cfg)
	return l
}

func (l *Live) Get() *Config {
	return l.cur.Load()
}

// Reload re-reads the file. On error the previous config stays active.
func (l *Live) Reload() error {
	cfg, err := Load(l.path)
	if err != nil {
		return err
	}
	if l.apply != nil {
		l.apply(cfg)
	}
	l.cur.Store(cfg)
	return nil
}

// Watch reloads the config whenever its file is written. It blocks until ctx
// is cancelled.
func (l *Live) Watch(ctx context.Context) error {
	dir := filepath.Dir(l.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	target := filepath.Clean(l.path)
	for {
		select {
		case <-ctx.Done():
			l.stopTimer()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				l.schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.WithError(err).Warn("config watcher error")
		}
	}
}

func (l *Live) schedule() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(l.debounce, func() {
		if err := l.Reload(); err != nil {
			l.logger.WithError(err).Warn("config reload failed, keeping previous settings")
			return
		}
		l.logger.Infof("config reloaded from %s", l.path)
	})
}

func (l *Live) stopTimer() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}
