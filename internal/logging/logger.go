// Package logging configures the diagnostic log shared by all components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// EnvLevel overrides the configured log level.
const EnvLevel = "GITFX_LOG_LEVEL"

var (
	root     = logrus.New()
	rootMu   sync.Mutex
	loggers  = make(map[string]*logrus.Entry)
	openFile *os.File
)

// Options controls where and how much is logged.
type Options struct {
	Level string // debug, info, warn, error
	File  string // explicit log file; empty selects a default
	// Interactive is true when the terminal is owned by the dashboard, in
	// which case nothing is written to stderr.
	Interactive bool
}

// Setup configures the shared logger. It may be called again to reconfigure.
func Setup(opts Options) error {
	rootMu.Lock()
	defer rootMu.Unlock()

	levelStr := "info"
	if env := os.Getenv(EnvLevel); env != "" {
		levelStr = env
	} else if opts.Level != "" {
		levelStr = opts.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	root.SetLevel(level)
	root.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	if openFile != nil {
		_ = openFile.Close()
		openFile = nil
	}

	var writers []io.Writer

	path := opts.File
	if path == "" && opts.Interactive {
		path = DefaultLogPath(time.Now())
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		openFile = f
		writers = append(writers, f)
	}

	// Structured logs go to stderr unless the dashboard owns the terminal.
	// When stderr is redirected they are always kept.
	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if !opts.Interactive || !isTerminal {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		root.SetOutput(io.Discard)
	case 1:
		root.SetOutput(writers[0])
	default:
		root.SetOutput(io.MultiWriter(writers...))
	}
	return nil
}

// NewLogger returns the logger entry for a component.
func NewLogger(component string) *logrus.Entry {
	rootMu.Lock()
	defer rootMu.Unlock()

	if logger, ok := loggers[component]; ok {
		return logger
	}
	logger := root.WithField("component", component)
	loggers[component] = logger
	return logger
}

// Discard returns an entry that drops everything, for tests and callers that
// do not care about diagnostics.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// DefaultLogPath is $XDG_STATE_HOME/gitfx/logs/gitfx-<date>.log.
func DefaultLogPath(now time.Time) string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "gitfx", "logs", fmt.Sprintf("gitfx-%s.log", now.Format("2006-01-02")))
}

// Close releases the log file, if one is open.
func Close() error {
	rootMu.Lock()
	defer rootMu.Unlock()
	root.SetOutput(os.Stderr)
	if openFile == nil {
		return nil
	}
	err := openFile.Close()
	openFile = nil
	return err
}
