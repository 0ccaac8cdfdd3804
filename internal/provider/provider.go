// Package provider defines the repository source the watcher observes and
// normalizes whatever a concrete source exposes into snapshots.
package provider

import (
	"context"
	"errors"
)

// ErrNotifyUnsupported is returned when a repository has no change stream.
var ErrNotifyUnsupported = errors.New("repository does not support change notifications")

// Head is the head state of a repository. Zero values mean "unknown".
type Head struct {
	Name     string
	Upstream string
	Ahead    int
	Behind   int
	Commit   string
}

type Change struct {
	Path string
	Code string
}

// State is what a repository currently exposes. Any member may be nil.
type State struct {
	Head               *Head
	WorkingTreeChanges []Change
	IndexChanges       []Change
	MergeChanges       []Change
}

// Repository is the minimum every provider must expose.
type Repository interface {
	RootPath() string
	State() *State
}

// Refresher is implemented by repositories that can re-read their state on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Notifier is implemented by repositories that publish change notifications.
type Notifier interface {
	OnDidChange(listener func()) (Disposable, error)
}

type Disposable interface {
	Dispose() error
}

// DisposeFunc adapts a function to Disposable.
type DisposeFunc func() error

func (f DisposeFunc) Dispose() error {
	if f == nil {
		return nil
	}
	return f()
}

// Provider lists the repositories currently known, in a stable order.
type Provider interface {
	Repositories(ctx context.Context) ([]Repository, error)
}
