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

func TestPoller_FirstObservationOnlyInitializes(t *testing.T) {
	f := newFixture()
	repo := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{Ahead: 2, Commit: "abc1111"}))
	p := NewPoller(providertest.NewProvider(repo), f.eval, staticSettings(fastSettings()), f.logger)

	require.NoError(t, p.tick(context.Background(), fastSettings()))
	assert.Empty(t, f.dispatcher.events())
	assert.Equal(t, 1, repo.Refreshes(), "each tick refreshes before reading")

	snap, ok := p.reg.Get("/a").Snapshot()
	require.True(t, ok)
	assert.Equal(t, 2, snap.Ahead)
}

func TestPoller_DetectsPush(t *testing.T) {
	f := newFixture()
	repo := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{Ahead: 2, Commit: "abc1111"}))
	p := NewPoller(providertest.NewProvider(repo), f.eval, staticSettings(fastSettings()), f.logger)
	ctx := context.Background()

	require.NoError(t, p.tick(ctx, fastSettings()))
	repo.SetSnap(model.RepoSnap{Commit: "abc1111"})
	require.NoError(t, p.tick(ctx, fastSettings()))
	require.NoError(t, p.tick(ctx, fastSettings()))

	assert.Equal(t, []model.EffectEvent{model.EventPush}, f.dispatcher.events())
	assert.Equal(t, 3, f.observer.count("/a"))
}

func TestPoller_DisabledFlagSuppressesEvent(t *testing.T) {
	f := newFixture()
	repo := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{Ahead: 2}))
	s := fastSettings()
	s.Flags.Push = false
	p := NewPoller(providertest.NewProvider(repo), f.eval, staticSettings(s), f.logger)
	ctx := context.Background()

	require.NoError(t, p.tick(ctx, s))
	repo.SetSnap(model.RepoSnap{})
	require.NoError(t, p.tick(ctx, s))

	assert.Empty(t, f.dispatcher.events())
	snap, _ := p.reg.Get("/a").Snapshot()
	assert.Equal(t, 0, snap.Ahead, "snapshot stored even without an event")
}

func TestPoller_RemovedRepositoryPurged(t *testing.T) {
	f := newFixture()
	a := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{}))
	b := providertest.NewRepo("/b", providertest.StateFor(model.RepoSnap{}))
	prov := providertest.NewProvider(a, b)
	p := NewPoller(prov, f.eval, staticSettings(fastSettings()), f.logger)
	ctx := context.Background()

	require.NoError(t, p.tick(ctx, fastSettings()))
	assert.Equal(t, []string{"/a", "/b"}, p.reg.Keys())

	prov.Set(a)
	require.NoError(t, p.tick(ctx, fastSettings()))
	assert.Equal(t, []string{"/a"}, p.reg.Keys())
	assert.True(t, f.observer.forgot("/b"))
	assert.Equal(t, 1, b.Refreshes(), "removed repository no longer evaluated")

	prov.Set()
	assert.NotPanics(t, func() { _ = p.tick(ctx, fastSettings()) })
	assert.Empty(t, p.reg.Keys())
}

func TestPoller_RefreshErrorAbortsTick(t *testing.T) {
	f := newFixture()
	a := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{}))
	b := providertest.NewRepo("/b", providertest.StateFor(model.RepoSnap{}))
	a.FailRefresh(errors.New("index.lock exists"))
	p := NewPoller(providertest.NewProvider(a, b), f.eval, staticSettings(fastSettings()), f.logger)

	err := p.tick(context.Background(), fastSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/a")
	assert.Equal(t, 0, b.Refreshes(), "rest of the tick skipped")
	assert.Nil(t, p.reg.Get("/a"), "nothing stored on failure")
}

func TestPoller_CancelledDuringRefreshDiscardsResult(t *testing.T) {
	f := newFixture()
	repo := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{Ahead: 1}))
	p := NewPoller(providertest.NewProvider(repo), f.eval, staticSettings(fastSettings()), f.logger)

	ctx, cancel := context.WithCancel(context.Background())
	repo.OnRefresh(cancel)

	require.NoError(t, p.tick(ctx, fastSettings()))
	assert.Empty(t, p.reg.Keys())
	assert.Equal(t, 0, f.observer.count("/a"))
}

func TestPoller_RecoveryDelayAfterError(t *testing.T) {
	f := newFixture()
	prov := providertest.NewProvider()
	prov.Fail(errors.New("scan failed"))
	p := NewPoller(prov, f.eval, staticSettings(fastSettings()), f.logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// poll interval is an hour, so repeated calls can only come from the
	// recovery delay
	assert.Eventually(t, func() bool { return prov.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, f.warnings(), 1)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPoller_RunStopsAndClears(t *testing.T) {
	f := newFixture()
	repo := providertest.NewRepo("/a", providertest.StateFor(model.RepoSnap{}))
	p := NewPoller(providertest.NewProvider(repo), f.eval, staticSettings(fastSettings()), f.logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	assert.Eventually(t, func() bool { return repo.Refreshes() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.True(t, p.reg.Closed())
	assert.Empty(t, p.reg.Keys())
}
