package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jackchuka/gitfx/internal/config"
	"github.com/jackchuka/gitfx/internal/model"
	"github.com/jackchuka/gitfx/internal/scanner"
	"github.com/jackchuka/gitfx/internal/status"
)

var errRepoClosed = errors.New("repository handle closed")

// GitProvider discovers repositories under the configured scan paths and
// serves one long-lived GitRepo handle per repository root.
type GitProvider struct {
	cfg        func() *config.Config
	newScanner func(*config.Config) scanner.Scanner
	reader     status.Reader
	logger     *logrus.Entry
	now        func() time.Time

	mu       sync.Mutex
	repos    []*GitRepo
	byPath   map[string]*GitRepo
	lastScan time.Time
}

var _ Provider = (*GitProvider)(nil)

// NewGitProvider reads the config through cfg on every rescan so scan paths
// and ignore patterns follow config reloads.
func NewGitProvider(cfg func() *config.Config, logger *logrus.Entry) *GitProvider {
	return &GitProvider{
		cfg: cfg,
		newScanner: func(c *config.Config) scanner.Scanner {
			return scanner.NewWalker(c)
		},
		reader: status.NewGitReader(),
		logger: logger,
		now:    time.Now,
		byPath: make(map[string]*GitRepo),
	}
}

// Repositories returns the known repositories sorted by path. The file
// system is rescanned at most once per rescan interval.
func (p *GitProvider) Repositories(ctx context.Context) ([]Repository, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := p.cfg()
	if p.lastScan.IsZero() || p.now().Sub(p.lastScan) >= cfg.RescanInterval {
		if err := p.rescanLocked(ctx, cfg); err != nil {
			if p.lastScan.IsZero() {
				return nil, err
			}
			p.logger.WithError(err).Warn("rescan failed, keeping previous repository list")
		}
	}

	out := make([]Repository, len(p.repos))
	for i, r := range p.repos {
		out[i] = r
	}
	return out, nil
}

func (p *GitProvider) rescanLocked(ctx context.Context, cfg *config.Config) error {
	found, err := p.newScanner(cfg).Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan repositories: %w", err)
	}

	paths := make([]string, 0, len(found))
	for _, r := range found {
		paths = append(paths, r.Path)
	}
	sort.Strings(paths)

	next := make([]*GitRepo, 0, len(paths))
	nextByPath := make(map[string]*GitRepo, len(paths))
	for _, path := range paths {
		if _, dup := nextByPath[path]; dup {
			continue
		}
		r, ok := p.byPath[path]
		if !ok {
			r = newGitRepo(path, p.reader, p.shouldIgnore, p.logger)
			p.logger.Debugf("discovered repository %s", path)
		}
		next = append(next, r)
		nextByPath[path] = r
	}

	for path, r := range p.byPath {
		if _, ok := nextByPath[path]; !ok {
			p.logger.Debugf("repository gone: %s", path)
			r.close()
		}
	}

	p.repos = next
	p.byPath = nextByPath
	p.lastScan = p.now()
	return nil
}

// Close shuts down every handle's file watch.
func (p *GitProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, r := range p.repos {
		r.close()
	}
	p.repos = nil
	p.byPath = make(map[string]*GitRepo)
	p.lastScan = time.Time{}
	return nil
}

// shouldIgnore matches against the current config, so watches of known
// repositories follow ignore_patterns reloads.
func (p *GitProvider) shouldIgnore(path string) bool {
	return p.cfg().ShouldIgnore(path)
}

// GitRepo is a repository backed by the git executable. State is nil until
// the first successful Refresh.
type GitRepo struct {
	path   string
	reader status.Reader
	ignore func(string) bool
	logger *logrus.Entry

	mu        sync.RWMutex
	state     *State
	watch     *treeWatch
	listeners map[uint64]func()
	nextID    uint64
	closed    bool
}

var (
	_ Repository = (*GitRepo)(nil)
	_ Refresher  = (*GitRepo)(nil)
	_ Notifier   = (*GitRepo)(nil)
)

func newGitRepo(path string, reader status.Reader, ignore func(string) bool, logger *logrus.Entry) *GitRepo {
	return &GitRepo{
		path:      path,
		reader:    reader,
		ignore:    ignore,
		logger:    logger.WithField("repo", path),
		listeners: make(map[uint64]func()),
	}
}

func (r *GitRepo) RootPath() string {
	return r.path
}

// State returns the last read state. Stored states are never mutated.
func (r *GitRepo) State() *State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *GitRepo) Refresh(ctx context.Context) error {
	st, err := r.reader.GetStatus(ctx, r.path)
	if err != nil {
		return err
	}

	next := StateFromStatus(st)
	r.mu.Lock()
	r.state = next
	r.mu.Unlock()
	return nil
}

// OnDidChange starts watching the repository on first subscription. The
// state is refreshed before listeners run, so they observe the new state.
func (r *GitRepo) OnDidChange(listener func()) (Disposable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errRepoClosed
	}
	if r.watch == nil {
		w, err := newTreeWatch(r.path, status.GitDir(r.path), r.ignore, r.changed, r.logger)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", r.path, err)
		}
		r.watch = w
	}

	id := r.nextID
	r.nextID++
	r.listeners[id] = listener

	var once sync.Once
	return DisposeFunc(func() error {
		var err error
		once.Do(func() { err = r.removeListener(id) })
		return err
	}), nil
}

func (r *GitRepo) removeListener(id uint64) error {
	r.mu.Lock()
	delete(r.listeners, id)
	var w *treeWatch
	if len(r.listeners) == 0 {
		w, r.watch = r.watch, nil
	}
	r.mu.Unlock()

	if w != nil {
		return w.Close()
	}
	return nil
}

func (r *GitRepo) changed() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Refresh(ctx); err != nil {
		r.logger.WithError(err).Debug("refresh after change failed")
	}

	r.mu.RLock()
	listeners := make([]func(), 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.mu.RUnlock()

	for _, l := range listeners {
		l()
	}
}

func (r *GitRepo) close() {
	r.mu.Lock()
	r.closed = true
	w := r.watch
	r.watch = nil
	r.listeners = make(map[uint64]func())
	r.mu.Unlock()

	if w != nil {
		_ = w.Close()
	}
}

// StateFromStatus converts a parsed git status into provider state.
func StateFromStatus(st *model.RepoStatus) *State {
	return &State{
		Head: &Head{
			Name:     st.Branch,
			Upstream: st.Upstream,
			Ahead:    st.Ahead,
			Behind:   st.Behind,
			Commit:   st.Commit,
		},
		WorkingTreeChanges: convertChanges(st.WorkingTree),
		IndexChanges:       convertChanges(st.Index),
		MergeChanges:       convertChanges(st.Merge),
	}
}

func convertChanges(in []model.FileChange) []Change {
	if len(in) == 0 {
		return nil
	}
	out := make([]Change, len(in))
	for i, c := range in {
		out[i] = Change{Path: c.Path, Code: c.Code}
	}
	return out
}
