package tui

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jackchuka/gitfx/internal/model"
)

type ViewFilter int

const (
	ViewAll ViewFilter = iota
	ViewDirty
	ViewAhead
	ViewBehind
	ViewRecent
)

const maxToasts = 3

type Toast struct {
	ID        int
	Sink      uint64 // 0 for local notices that expire on a timer
	Kind      model.EffectKind
	Title     string
	Detail    string
	CreatedAt time.Time
}

// RepoRow is the dashboard's view of one observed repository.
type RepoRow struct {
	Key         string
	Head        model.HeadInfo
	Snap        model.RepoSnap
	Evaluations int
	LastEvent   model.EffectEvent
	LastEventAt time.Time
}

func (r *RepoRow) DisplayName() string {
	return filepath.Base(r.Key)
}

type TableRow struct {
	Repo *RepoRow
}

type AnimState struct {
	frame    int
	glowFade map[string]int
}

func newAnimState() AnimState {
	return AnimState{glowFade: make(map[string]int)}
}

type SummaryData struct {
	TotalRepos  int
	DirtyRepos  int
	AheadRepos  int
	BehindRepos int
	Effects     int
}

// Options wires the dashboard to the running scheduler.
type Options struct {
	Mode   string
	Bridge *Bridge
	// Trigger dispatches a manual effect and reports whether it was accepted.
	Trigger func(model.EffectPayload) bool
}

type Model struct {
	opts   Options
	repos  map[string]*RepoRow
	rows   []TableRow
	cursor int

	width, height int
	scrollOffset  int

	filterMode  bool
	filterInput textinput.Model
	filterText  string
	viewFilter  ViewFilter
	showHelp    bool

	summary  SummaryData
	anim     AnimState
	toasts   []Toast
	openSink map[uint64]bool

	keys        keyMap
	nextToastID int
	animRunning bool
	now         func() time.Time
}

func NewModel(opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "filter repos..."
	ti.CharLimit = 50

	if opts.Bridge == nil {
		opts.Bridge = NewBridge()
	}

	return &Model{
		opts:        opts,
		repos:       make(map[string]*RepoRow),
		keys:        newKeyMap(),
		filterInput: ti,
		viewFilter:  ViewAll,
		anim:        newAnimState(),
		openSink:    make(map[uint64]bool),
		now:         time.Now,
	}
}

func (m *Model) Init() tea.Cmd {
	// Send an immediate animTickMsg (no timer) so the first tick doesn't
	// depend on tea.Tick's timer surviving the Init→BatchMsg dispatch path.
	m.animRunning = true
	return tea.Batch(
		m.listen(),
		func() tea.Msg { return animTickMsg{} },
	)
}

type manualResultMsg struct{ accepted bool }
type animTickMsg struct{}
type toastExpiredMsg struct{ id int }

// listen waits for the next bridge message. Exactly one listen is pending
// at any time; every bridge message handler re-issues it.
func (m *Model) listen() tea.Cmd {
	return m.opts.Bridge.next
}

func (m *Model) buildRows() {
	all := make([]*RepoRow, 0, len(m.repos))
	for _, r := range m.repos {
		all = append(all, r)
	}
	filtered := filterRepos(all, m.viewFilter)

	if m.filterText != "" {
		var textFiltered []*RepoRow
		for _, r := range filtered {
			if containsIgnoreCase(r.DisplayName(), m.filterText) ||
				containsIgnoreCase(r.Key, m.filterText) ||
				containsIgnoreCase(r.Head.Branch, m.filterText) {
				textFiltered = append(textFiltered, r)
			}
		}
		filtered = textFiltered
	}

	if m.viewFilter == ViewRecent {
		sort.Slice(filtered, func(i, j int) bool {
			return filtered[i].LastEventAt.After(filtered[j].LastEventAt)
		})
	} else {
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].Key < filtered[j].Key })
	}

	rows := make([]TableRow, len(filtered))
	for i, r := range filtered {
		rows[i] = TableRow{Repo: r}
	}
	m.rows = rows

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) refresh() {
	m.computeSummary()
	m.buildRows()
}

func (m *Model) computeSummary() {
	s := SummaryData{Effects: m.summary.Effects}
	for _, r := range m.repos {
		s.TotalRepos++
		if r.Snap.Dirty {
			s.DirtyRepos++
		}
		if r.Snap.Ahead > 0 {
			s.AheadRepos++
		}
		if r.Snap.Behind > 0 {
			s.BehindRepos++
		}
	}
	m.summary = s
}

func (m *Model) selectedRepo() *RepoRow {
	if len(m.rows) == 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].Repo
}

func (m *Model) pushToast(t Toast) {
	t.ID = m.nextToastID
	m.nextToastID++
	t.CreatedAt = m.now()
	m.toasts = append(m.toasts, t)
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
}

// addNotice shows a local toast that expires on its own.
func (m *Model) addNotice(title string, kind model.EffectKind) tea.Cmd {
	m.pushToast(Toast{Kind: kind, Title: title})
	id := m.nextToastID - 1
	return tea.Tick(3*time.Second, func(_ time.Time) tea.Msg {
		return toastExpiredMsg{id}
	})
}

func (m *Model) removeToasts(keep func(Toast) bool) {
	out := m.toasts[:0]
	for _, t := range m.toasts {
		if keep(t) {
			out = append(out, t)
		}
	}
	m.toasts = out
}

func (m *Model) updateAnimState() {
	m.anim.frame++

	// Step the border flash every 3 frames (300ms) for snappy blink
	if m.anim.frame%3 == 0 {
		for path, step := range m.anim.glowFade {
			if step >= len(glowBorderColors)-1 {
				delete(m.anim.glowFade, path)
			} else {
				m.anim.glowFade[path] = step + 1
			}
		}
	}
}

func (m *Model) animTick() tea.Cmd {
	m.animRunning = true
	return tea.Tick(100*time.Millisecond, func(_ time.Time) tea.Msg {
		return animTickMsg{}
	})
}

func (m *Model) hasActiveAnimations() bool {
	return len(m.anim.glowFade) > 0 || len(m.repos) == 0
}

func (m *Model) ensureAnimTick() tea.Cmd {
	if m.animRunning {
		return nil
	}
	return m.animTick()
}

func (m *Model) fireManual(path string) tea.Cmd {
	trigger := m.opts.Trigger
	if trigger == nil {
		return nil
	}
	return func() tea.Msg {
		return manualResultMsg{accepted: trigger(ManualPayload(path))}
	}
}

// ManualPayload is the info effect used to test the presentation surface.
func ManualPayload(path string) model.EffectPayload {
	return model.EffectPayload{
		Kind:     model.KindInfo,
		Event:    model.EventManual,
		RepoPath: path,
		Title:    "Test effect",
		Detail:   "Triggered manually",
	}
}

func (m *Model) openShell(path string) tea.Cmd {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}
	cmd := exec.Command(shell)
	cmd.Dir = path
	return tea.ExecProcess(cmd, func(err error) tea.Msg { return nil })
}

func (m *Model) openEditor(path string) tea.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	cmd := exec.Command(editor, path)
	return tea.ExecProcess(cmd, func(err error) tea.Msg { return nil })
}

func (m *Model) copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("pbcopy")
		case "windows":
			cmd = exec.Command("clip")
		default:
			if _, err := exec.LookPath("xclip"); err == nil {
				cmd = exec.Command("xclip", "-selection", "clipboard")
			} else {
				cmd = exec.Command("xsel", "--clipboard", "--input")
			}
		}
		cmd.Stdin = strings.NewReader(text)
		_ = cmd.Run()
		return nil
	}
}

func filterRepos(repos []*RepoRow, filter ViewFilter) []*RepoRow {
	if filter == ViewAll {
		return repos
	}
	var filtered []*RepoRow
	for _, r := range repos {
		var keep bool
		switch filter {
		case ViewDirty:
			keep = r.Snap.Dirty
		case ViewAhead:
			keep = r.Snap.Ahead > 0
		case ViewBehind:
			keep = r.Snap.Behind > 0
		case ViewRecent:
			keep = r.LastEvent != ""
		}
		if keep {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Run shows the dashboard until the user quits or ctx is cancelled. The
// bridge is closed on return.
func Run(ctx context.Context, opts Options) error {
	m := NewModel(opts)
	defer m.opts.Bridge.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
