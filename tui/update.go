package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jackchuka/gitfx/internal/model"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if bm, ok := msg.(bridgeMsg); ok {
		return m, tea.Batch(m.handleBridge(bm), m.listen())
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case animTickMsg:
		m.updateAnimState()
		if m.hasActiveAnimations() {
			return m, m.animTick()
		}
		m.animRunning = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case manualResultMsg:
		if !msg.accepted {
			return m, m.addNotice("Effect suppressed (cooldown or disabled)", model.KindInfo)
		}
		return m, nil

	case toastExpiredMsg:
		m.removeToasts(func(t Toast) bool { return t.ID != msg.id })
	}

	return m, nil
}

func (m *Model) handleBridge(msg bridgeMsg) tea.Cmd {
	switch msg := msg.(type) {
	case repoObservedMsg:
		r, ok := m.repos[msg.key]
		if !ok {
			r = &RepoRow{Key: msg.key}
			m.repos[msg.key] = r
		}
		r.Head = msg.head
		r.Snap = msg.snap
		r.Evaluations++
		m.refresh()

	case repoForgottenMsg:
		delete(m.repos, msg.key)
		delete(m.anim.glowFade, msg.key)
		m.refresh()

	case sinkOpenedMsg:
		m.openSink[msg.sink] = true

	case effectMsg:
		m.summary.Effects++
		m.pushToast(Toast{
			Sink:   msg.sink,
			Kind:   msg.payload.Kind,
			Title:  msg.payload.Title,
			Detail: msg.payload.Detail,
		})
		if r, ok := m.repos[msg.payload.RepoPath]; ok {
			r.LastEvent = msg.payload.Event
			r.LastEventAt = m.now()
			m.anim.glowFade[r.Key] = 0
			m.buildRows()
		}
		return m.ensureAnimTick()

	case sinkClosedMsg:
		delete(m.openSink, msg.sink)
		m.removeToasts(func(t Toast) bool { return t.Sink != msg.sink })
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help overlay — any key closes
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.filterMode {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.filterMode = false
			m.filterInput.Reset()
			m.filterText = ""
			m.buildRows()
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			m.buildRows()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.filterText = m.filterInput.Value()
			m.buildRows()
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0

	case key.Matches(msg, m.keys.Bottom):
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}

	case key.Matches(msg, m.keys.HalfDown):
		m.cursor += m.visibleRows() / 2
		if m.cursor >= len(m.rows) {
			m.cursor = len(m.rows) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}

	case key.Matches(msg, m.keys.HalfUp):
		m.cursor -= m.visibleRows() / 2
		if m.cursor < 0 {
			m.cursor = 0
		}

	case key.Matches(msg, m.keys.Filter):
		m.filterMode = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Escape):
		m.filterText = ""
		m.filterInput.Reset()
		m.buildRows()

	case key.Matches(msg, m.keys.Fire):
		path := ""
		if repo := m.selectedRepo(); repo != nil {
			path = repo.Key
		}
		return m, m.fireManual(path)

	case key.Matches(msg, m.keys.Editor):
		if repo := m.selectedRepo(); repo != nil {
			return m, m.openEditor(repo.Key)
		}

	case key.Matches(msg, m.keys.Shell):
		if repo := m.selectedRepo(); repo != nil {
			return m, m.openShell(repo.Key)
		}

	case key.Matches(msg, m.keys.CopyPath):
		if repo := m.selectedRepo(); repo != nil {
			return m, tea.Batch(
				m.copyToClipboard(repo.Key),
				m.addNotice("Copied path", model.KindInfo),
			)
		}

	case key.Matches(msg, m.keys.ViewAll):
		m.viewFilter = ViewAll
		m.buildRows()

	case key.Matches(msg, m.keys.ViewDirty):
		m.viewFilter = ViewDirty
		m.buildRows()

	case key.Matches(msg, m.keys.ViewAhead):
		m.viewFilter = ViewAhead
		m.buildRows()

	case key.Matches(msg, m.keys.ViewBehind):
		m.viewFilter = ViewBehind
		m.buildRows()

	case key.Matches(msg, m.keys.ViewRecent):
		m.viewFilter = ViewRecent
		m.buildRows()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	}

	return m, nil
}

func (m *Model) visibleRows() int {
	// header(2) + table header(1) + footer(2) = 5
	avail := m.height - 5
	if avail < 1 {
		avail = 1
	}
	return avail
}
