package provider

import (
	"context"

	"github.com/jackchuka/gitfx/internal/model"
)

// Handle wraps a Repository and records which optional capabilities it has,
// so callers never type-assert at the call site.
type Handle struct {
	repo      Repository
	refresher Refresher
	notifier  Notifier
}

func Adapt(repo Repository) *Handle {
	h := &Handle{repo: repo}
	h.refresher, _ = repo.(Refresher)
	h.notifier, _ = repo.(Notifier)
	return h
}

// Key is the registry key of the repository: its root path.
func (h *Handle) Key() string {
	return h.repo.RootPath()
}

func (h *Handle) CanNotify() bool {
	return h.notifier != nil
}

// Refresh forces a status re-read. It is a no-op for repositories that
// cannot refresh.
func (h *Handle) Refresh(ctx context.Context) error {
	if h.refresher == nil {
		return nil
	}
	return h.refresher.Refresh(ctx)
}

func (h *Handle) OnDidChange(listener func()) (Disposable, error) {
	if h.notifier == nil {
		return nil, ErrNotifyUnsupported
	}
	return h.notifier.OnDidChange(listener)
}

func (h *Handle) Snap() model.RepoSnap {
	return Snap(h.repo.State())
}

func (h *Handle) Head() model.HeadInfo {
	return HeadOf(h.repo.State())
}

// Snap reads the canonical snapshot out of a state. Missing fields read as
// zero values.
func Snap(st *State) model.RepoSnap {
	head := HeadOf(st)
	return model.RepoSnap{
		Ahead:  head.Ahead,
		Behind: head.Behind,
		Dirty:  isDirty(st),
		Commit: head.Commit,
	}
}

func HeadOf(st *State) model.HeadInfo {
	if st == nil || st.Head == nil {
		return model.HeadInfo{}
	}
	h := st.Head
	return model.HeadInfo{
		Branch:   h.Name,
		Upstream: h.Upstream,
		Ahead:    max(h.Ahead, 0),
		Behind:   max(h.Behind, 0),
		Commit:   h.Commit,
	}
}

func isDirty(st *State) bool {
	if st == nil {
		return false
	}
	return len(st.WorkingTreeChanges)+len(st.IndexChanges)+len(st.MergeChanges) > 0
}
