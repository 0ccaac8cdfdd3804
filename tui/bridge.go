package tui

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jackchuka/gitfx/internal/effects"
	"github.com/jackchuka/gitfx/internal/model"
)

// bridgeMsg marks messages that arrive through a Bridge.
type bridgeMsg interface {
	tea.Msg
	fromBridge()
}

type repoObservedMsg struct {
	key  string
	head model.HeadInfo
	snap model.RepoSnap
}

type repoForgottenMsg struct{ key string }

type sinkOpenedMsg struct{ sink uint64 }

type effectMsg struct {
	sink    uint64
	payload model.EffectPayload
}

type sinkClosedMsg struct{ sink uint64 }

func (repoObservedMsg) fromBridge()  {}
func (repoForgottenMsg) fromBridge() {}
func (sinkOpenedMsg) fromBridge()    {}
func (effectMsg) fromBridge()        {}
func (sinkClosedMsg) fromBridge()    {}

// Bridge carries scheduler observations and effect sinks into the running
// dashboard. It is a watcher observer and an effect sink factory at once.
// Once closed, sends are dropped and sinks report effects.ErrSinkClosed.
type Bridge struct {
	msgs     chan bridgeMsg
	done     chan struct{}
	once     sync.Once
	nextSink atomic.Uint64
}

func NewBridge() *Bridge {
	return &Bridge{
		msgs: make(chan bridgeMsg, 256),
		done: make(chan struct{}),
	}
}

func (b *Bridge) send(msg bridgeMsg) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.msgs <- msg:
		return true
	case <-b.done:
		return false
	}
}

// next blocks until a message is available; nil after Close.
func (b *Bridge) next() tea.Msg {
	select {
	case msg := <-b.msgs:
		return msg
	case <-b.done:
		return nil
	}
}

func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bridge) Observed(key string, head model.HeadInfo, snap model.RepoSnap) {
	b.send(repoObservedMsg{key: key, head: head, snap: snap})
}

func (b *Bridge) Forgotten(key string) {
	b.send(repoForgottenMsg{key: key})
}

// Open shows a toast area in the dashboard.
func (b *Bridge) Open() (effects.Sink, error) {
	id := b.nextSink.Add(1)
	if !b.send(sinkOpenedMsg{sink: id}) {
		return nil, effects.ErrSinkClosed
	}
	return &toastSink{bridge: b, id: id}, nil
}

type toastSink struct {
	bridge *Bridge
	id     uint64
	closed atomic.Bool
}

func (s *toastSink) Fire(p model.EffectPayload) error {
	if s.closed.Load() || !s.bridge.send(effectMsg{sink: s.id, payload: p}) {
		return effects.ErrSinkClosed
	}
	return nil
}

func (s *toastSink) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.bridge.send(sinkClosedMsg{sink: s.id})
	return nil
}
