package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackchuka/gitfx/internal/model"
	"github.com/jackchuka/gitfx/internal/provider/providertest"
)

func runWatcher(t *testing.T, w *EventWatcher) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancelCtx()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
	t.Cleanup(stop)
	return stop
}

func TestEventWatcher_AttachStoresInitialSnapshot(t *testing.T) {
	f := newFixture()
	repo := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{Ahead: 3}))
	w := NewEventWatcher(providertest.NewProvider(repo), f.eval, staticSettings(fastSettings()), f.logger)

	w.reconcile(context.Background())
	t.Cleanup(w.shutdown)

	assert.Equal(t, 1, repo.Listeners())
	assert.Equal(t, 1, repo.Refreshes())
	assert.Equal(t, 1, f.observer.count("/a"))
	assert.Empty(t, f.dispatcher.events(), "attach never emits")

	w.reconcile(context.Background())
	assert.Equal(t, 1, repo.Listeners(), "one listener per repository")
	assert.Equal(t, 1, repo.Refreshes())
}

func TestEventWatcher_SkipsRepositoriesWithoutNotifications(t *testing.T) {
	f := newFixture()
	plain := &providertest.PlainRepo{Path: "/plain", St: providertest.StateFor(model.RepoSnap{})}
	w := NewEventWatcher(providertest.NewProvider(plain), f.eval, staticSettings(fastSettings()), f.logger)
	t.Cleanup(w.shutdown)

	w.reconcile(context.Background())
	w.reconcile(context.Background())

	assert.Nil(t, w.reg.Get("/plain"), "left unmonitored")
	assert.Equal(t, 0, f.observer.count("/plain"))
	assert.Equal(t, 1, f.warnings(), "logged once")
}

func TestEventWatcher_DebounceCollapsesBurst(t *testing.T) {
	f := newFixture()
	repo := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{Ahead: 1, Commit: "abc1111"}))
	w := NewEventWatcher(providertest.NewProvider(repo), f.eval, staticSettings(fastSettings()), f.logger)
	runWatcher(t, w)

	require.Eventually(t, func() bool { return f.observer.count("/a") == 1 }, 2*time.Second, 5*time.Millisecond)

	repo.SetSnap(model.RepoSnap{Commit: "abc1111"})
	for i := 0; i < 5; i++ {
		repo.Notify()
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return f.observer.count("/a") == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(3 * MinDelay)
	assert.Equal(t, 2, f.observer.count("/a"), "burst evaluated exactly once")
	assert.Equal(t, []model.EffectEvent{model.EventPush}, f.dispatcher.events())
}

func TestEventWatcher_RemovedRepositoryPurged(t *testing.T) {
	f := newFixture()
	a := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{}))
	b := providertest.NewRepo("/b", providertest.StateFor(model.RepoSnap{}))
	prov := providertest.NewProvider(a, b)
	w := NewEventWatcher(prov, f.eval, staticSettings(fastSettings()), f.logger)
	t.Cleanup(w.shutdown)
	ctx := context.Background()

	w.reconcile(ctx)
	w.notify("/b")
	for _, key := range w.takePending() {
		w.arm(key, time.Hour)
	}
	require.True(t, w.reg.Get("/b").Armed())

	prov.Set(a)
	w.reconcile(ctx)

	assert.Nil(t, w.reg.Get("/b"))
	assert.Equal(t, 0, b.Listeners(), "listener disposed")
	assert.True(t, f.observer.forgot("/b"))
	assert.NotContains(t, w.handles, "/b")

	// a stale fire for the removed key is ignored
	assert.NotPanics(t, func() { w.fire(ctx, timerFire{key: "/b", seq: 1}) })
	prov.Set()
	assert.NotPanics(t, func() { w.reconcile(ctx) })
	assert.Empty(t, w.reg.Keys())
}

func TestEventWatcher_PeriodicReconcile(t *testing.T) {
	f := newFixture()
	a := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{}))
	prov := providertest.NewProvider(a)
	s := fastSettings()
	s.ReconcileInterval = 20 * time.Millisecond
	w := NewEventWatcher(prov, f.eval, staticSettings(s), f.logger)
	runWatcher(t, w)

	require.Eventually(t, func() bool { return a.Listeners() == 1 }, 2*time.Second, 5*time.Millisecond)

	b := providertest.NewRepo("/b", providertest.StateFor(model.RepoSnap{}))
	prov.Set(b)
	assert.Eventually(t, func() bool {
		return a.Listeners() == 0 && b.Listeners() == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEventWatcher_StaleFireIgnored(t *testing.T) {
	f := newFixture()
	repo := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{}))
	w := NewEventWatcher(providertest.NewProvider(repo), f.eval, staticSettings(fastSettings()), f.logger)
	t.Cleanup(w.shutdown)
	ctx := context.Background()

	w.reconcile(ctx)
	entry := w.reg.Get("/a")
	first := entry.Arm(time.Hour, func(uint64) {})
	second := entry.Arm(time.Hour, func(uint64) {})

	w.fire(ctx, timerFire{key: "/a", seq: first})
	assert.Equal(t, 1, f.observer.count("/a"), "superseded timer does not evaluate")

	w.fire(ctx, timerFire{key: "/a", seq: second})
	assert.Equal(t, 2, f.observer.count("/a"))
}

func TestEventWatcher_ShutdownDisposesListeners(t *testing.T) {
	f := newFixture()
	a := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{}))
	b := providertest.NewRepo("/b", providertest.StateFor(model.RepoSnap{}))
	a.FailDispose(errors.New("already gone"))
	w := NewEventWatcher(providertest.NewProvider(a, b), f.eval, staticSettings(fastSettings()), f.logger)
	stop := runWatcher(t, w)

	require.Eventually(t, func() bool {
		return a.Listeners() == 1 && b.Listeners() == 1
	}, 2*time.Second, 5*time.Millisecond)

	a.Notify()
	stop()

	assert.Equal(t, 0, a.Listeners())
	assert.Equal(t, 0, b.Listeners())
	assert.True(t, w.reg.Closed())
	assert.Empty(t, w.reg.Keys())
	assert.True(t, f.observer.forgot("/a"))
}

func TestEventWatcher_RefreshFailureOnAttachStillInitializes(t *testing.T) {
	f := newFixture()
	repo := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{Behind: 2}))
	repo.FailRefresh(errors.New("git missing"))
	w := NewEventWatcher(providertest.NewProvider(repo), f.eval, staticSettings(fastSettings()), f.logger)
	t.Cleanup(w.shutdown)

	w.reconcile(context.Background())

	snap, ok := w.reg.Get("/a").Snapshot()
	require.True(t, ok)
	assert.Equal(t, 2, snap.Behind)
}
