// Package providertest provides in-memory repositories and providers for
// exercising the watcher without a git executable.
package providertest

import (
	"context"
	"sync"

	"github.com/jackchuka/gitfx/internal/model"
	"github.com/jackchuka/gitfx/internal/provider"
)

// Repo is an in-memory repository that supports refresh and change
// notifications.
type Repo struct {
	mu         sync.Mutex
	path       string
	state      *provider.State
	refreshErr error
	refreshes  int
	onRefresh  func()
	listeners  map[int]func()
	nextID     int
	disposeErr error
}

func NewRepo(path string, state *provider.State) *Repo {
	return &Repo{
		path:      path,
		state:     state,
		listeners: make(map[int]func()),
	}
}

func (r *Repo) RootPath() string { return r.path }

func (r *Repo) State() *provider.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Repo) SetState(st *provider.State) {
	r.mu.Lock()
	r.state = st
	r.mu.Unlock()
}

// SetSnap replaces the state with one that reads back as snap.
func (r *Repo) SetSnap(snap model.RepoSnap) {
	r.SetState(StateFor(snap))
}

func (r *Repo) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.refreshes++
	hook, err := r.onRefresh, r.refreshErr
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

// FailRefresh makes every following Refresh return err (nil to recover).
func (r *Repo) FailRefresh(err error) {
	r.mu.Lock()
	r.refreshErr = err
	r.mu.Unlock()
}

// OnRefresh installs a hook that runs inside every Refresh call.
func (r *Repo) OnRefresh(fn func()) {
	r.mu.Lock()
	r.onRefresh = fn
	r.mu.Unlock()
}

func (r *Repo) Refreshes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshes
}

func (r *Repo) OnDidChange(listener func()) (provider.Disposable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.listeners[id] = listener
	return provider.DisposeFunc(func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
		return r.disposeErr
	}), nil
}

// FailDispose makes listener disposal return err after unsubscribing.
func (r *Repo) FailDispose(err error) {
	r.mu.Lock()
	r.disposeErr = err
	r.mu.Unlock()
}

// Notify invokes every subscribed listener.
func (r *Repo) Notify() {
	r.mu.Lock()
	listeners := make([]func(), 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.mu.Unlock()

	for _, l := range listeners {
		l()
	}
}

func (r *Repo) Listeners() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// PlainRepo exposes only the required members: no refresh, no notifications.
type PlainRepo struct {
	Path string
	St   *provider.State
}

func (r *PlainRepo) RootPath() string       { return r.Path }
func (r *PlainRepo) State() *provider.State { return r.St }

// Provider serves a mutable list of repositories.
type Provider struct {
	mu    sync.Mutex
	repos []provider.Repository
	err   error
	calls int
}

func NewProvider(repos ...provider.Repository) *Provider {
	return &Provider{repos: repos}
}

func (p *Provider) Set(repos ...provider.Repository) {
	p.mu.Lock()
	p.repos = repos
	p.mu.Unlock()
}

// Fail makes Repositories return err (nil to recover).
func (p *Provider) Fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *Provider) Repositories(ctx context.Context) ([]provider.Repository, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make([]provider.Repository, len(p.repos))
	copy(out, p.repos)
	return out, nil
}

// StateFor builds a provider state that reads back as snap.
func StateFor(snap model.RepoSnap) *provider.State {
	st := &provider.State{
		Head: &provider.Head{
			Name:     "main",
			Upstream: "origin/main",
			Ahead:    snap.Ahead,
			Behind:   snap.Behind,
			Commit:   snap.Commit,
		},
	}
	if snap.Dirty {
		st.WorkingTreeChanges = []provider.Change{{Path: "file.txt", Code: ".M"}}
	}
	return st
}
