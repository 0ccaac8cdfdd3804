// Package registry holds per-repository observation state keyed by root path.
//
// A Registry is owned by a single goroutine and is not safe for concurrent
// use. Timer callbacks must hand their sequence number back to the owner
// instead of touching entries directly.
package registry

import (
	"sort"
	"time"

	"github.com/jackchuka/gitfx/internal/model"
	"github.com/jackchuka/gitfx/internal/provider"
)

// Entry is the state kept for one repository.
type Entry struct {
	key      string
	snap     model.RepoSnap
	hasSnap  bool
	timer    *time.Timer
	seq      uint64
	listener provider.Disposable
}

func (e *Entry) Key() string {
	return e.key
}

// Snapshot returns the stored snapshot. ok is false while the entry is
// pending its first observation.
func (e *Entry) Snapshot() (snap model.RepoSnap, ok bool) {
	return e.snap, e.hasSnap
}

func (e *Entry) Store(snap model.RepoSnap) {
	e.snap = snap
	e.hasSnap = true
}

// Arm replaces the entry's debounce timer. fire runs on the timer goroutine
// with the sequence number of this arming.
func (e *Entry) Arm(d time.Duration, fire func(seq uint64)) uint64 {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.seq++
	seq := e.seq
	e.timer = time.AfterFunc(d, func() { fire(seq) })
	return seq
}

// Fired reports whether seq belongs to the current timer and clears it.
// A stale or already consumed seq returns false.
func (e *Entry) Fired(seq uint64) bool {
	if e.timer == nil || seq != e.seq {
		return false
	}
	e.timer = nil
	return true
}

// Armed reports whether a debounce timer is pending.
func (e *Entry) Armed() bool {
	return e.timer != nil
}

func (e *Entry) SetListener(d provider.Disposable) {
	e.listener = d
}

// release stops the timer and disposes the listener. Disposal errors are
// returned for logging only.
func (e *Entry) release() error {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.seq++
	if e.listener == nil {
		return nil
	}
	d := e.listener
	e.listener = nil
	return d.Dispose()
}

// Registry maps repository root paths to entries.
type Registry struct {
	entries map[string]*Entry
	closed  bool

	// OnDisposeError receives listener disposal failures.
	OnDisposeError func(key string, err error)
}

func New() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Get returns the entry for key, or nil.
func (r *Registry) Get(key string) *Entry {
	return r.entries[key]
}

// Ensure returns the entry for key, creating it if needed. It returns nil
// once the registry is closed.
func (r *Registry) Ensure(key string) *Entry {
	if r.closed {
		return nil
	}
	e, ok := r.entries[key]
	if !ok {
		e = &Entry{key: key}
		r.entries[key] = e
	}
	return e
}

// Remove purges key: timer stopped, listener disposed, entry deleted.
func (r *Registry) Remove(key string) {
	e, ok := r.entries[key]
	if !ok {
		return
	}
	delete(r.entries, key)
	r.releaseEntry(e)
}

// Prune removes every entry whose key is not in live and returns the
// removed keys in sorted order.
func (r *Registry) Prune(live map[string]bool) []string {
	var gone []string
	for key := range r.entries {
		if !live[key] {
			gone = append(gone, key)
		}
	}
	sort.Strings(gone)
	for _, key := range gone {
		r.Remove(key)
	}
	return gone
}

// Keys returns all keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close releases every entry and rejects further Ensure calls.
func (r *Registry) Close() {
	r.closed = true
	for _, key := range r.Keys() {
		r.Remove(key)
	}
}

func (r *Registry) Closed() bool {
	return r.closed
}

func (r *Registry) releaseEntry(e *Entry) {
	if err := e.release(); err != nil && r.OnDisposeError != nil {
		r.OnDisposeError(e.key, err)
	}
}
