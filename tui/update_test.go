package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jackchuka/gitfx/internal/model"
)

func newTestModel() *Model {
	m := NewModel(Options{Mode: "poll"})
	m.width, m.height = 120, 30
	m.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return m
}

func observe(m *Model, key string, snap model.RepoSnap) {
	m.Update(repoObservedMsg{
		key:  key,
		head: model.HeadInfo{Branch: "main", Upstream: "origin/main", Ahead: snap.Ahead, Behind: snap.Behind, Commit: snap.Commit},
		snap: snap,
	})
}

func TestUpdate_ObservedAndForgotten(t *testing.T) {
	m := newTestModel()

	observe(m, "/src/b", model.RepoSnap{Dirty: true})
	observe(m, "/src/a", model.RepoSnap{Ahead: 2})
	observe(m, "/src/a", model.RepoSnap{Ahead: 1})

	if len(m.rows) != 2 || m.rows[0].Repo.Key != "/src/a" {
		t.Fatalf("rows = %+v, want /src/a first", m.rows)
	}
	if got := m.repos["/src/a"].Evaluations; got != 2 {
		t.Errorf("Evaluations = %d, want 2", got)
	}
	if m.summary.DirtyRepos != 1 || m.summary.AheadRepos != 1 {
		t.Errorf("summary = %+v", m.summary)
	}

	m.Update(repoForgottenMsg{key: "/src/b"})
	if len(m.rows) != 1 || m.summary.TotalRepos != 1 {
		t.Errorf("after forget rows = %d, total = %d", len(m.rows), m.summary.TotalRepos)
	}
}

func TestUpdate_EffectToastFollowsSink(t *testing.T) {
	m := newTestModel()
	observe(m, "/src/a", model.RepoSnap{})

	m.Update(sinkOpenedMsg{sink: 1})
	m.Update(effectMsg{sink: 1, payload: model.EffectPayload{
		Kind:     model.KindSuccess,
		Event:    model.EventPush,
		RepoPath: "/src/a",
		Title:    "Push succeeded",
		Detail:   "main → origin/main",
	}})

	if len(m.toasts) != 1 {
		t.Fatalf("toasts = %d, want 1", len(m.toasts))
	}
	if m.repos["/src/a"].LastEvent != model.EventPush {
		t.Error("row should record the last effect")
	}
	if _, ok := m.anim.glowFade["/src/a"]; !ok {
		t.Error("row should glow after an effect")
	}
	if !strings.Contains(m.View(), "Push succeeded") {
		t.Error("toast should be rendered")
	}

	m.Update(sinkClosedMsg{sink: 1})
	if len(m.toasts) != 0 {
		t.Errorf("toasts = %d after sink close, want 0", len(m.toasts))
	}
}

func TestUpdate_ToastLimit(t *testing.T) {
	m := newTestModel()
	for i := 0; i < 5; i++ {
		m.Update(effectMsg{sink: 1, payload: model.EffectPayload{Title: "x"}})
	}
	if len(m.toasts) != maxToasts {
		t.Errorf("toasts = %d, want %d", len(m.toasts), maxToasts)
	}
}

func TestUpdate_ViewFilters(t *testing.T) {
	m := newTestModel()
	observe(m, "/a", model.RepoSnap{Dirty: true})
	observe(m, "/b", model.RepoSnap{Ahead: 1})
	observe(m, "/c", model.RepoSnap{Behind: 3})

	tests := []struct {
		key  string
		want []string
	}{
		{"2", []string{"/a"}},
		{"3", []string{"/b"}},
		{"4", []string{"/c"}},
		{"5", nil},
		{"1", []string{"/a", "/b", "/c"}},
	}

	for _, tt := range tests {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tt.key)})
		var got []string
		for _, r := range m.rows {
			got = append(got, r.Repo.Key)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("view %s: rows = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestUpdate_ManualTrigger(t *testing.T) {
	var got model.EffectPayload
	m := newTestModel()
	m.opts.Trigger = func(p model.EffectPayload) bool {
		got = p
		return false
	}
	observe(m, "/src/a", model.RepoSnap{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	if cmd == nil {
		t.Fatal("expected a command for the manual trigger")
	}
	msg := cmd()
	if got.Event != model.EventManual || got.RepoPath != "/src/a" {
		t.Errorf("payload = %+v", got)
	}

	m.Update(msg)
	if len(m.toasts) != 1 || !strings.Contains(m.toasts[0].Title, "suppressed") {
		t.Errorf("toasts = %+v, want a suppressed notice", m.toasts)
	}
}

func TestPlaceOverlay(t *testing.T) {
	bg := "aaaaaa\nbbbbbb\ncccccc"
	got := placeOverlay(2, 1, "XY", bg)
	want := "aaaaaa\nbbXYbb\ncccccc"
	if got != want {
		t.Errorf("placeOverlay() = %q, want %q", got, want)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{3 * time.Minute, "3m"},
		{2 * time.Hour, "2h"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
