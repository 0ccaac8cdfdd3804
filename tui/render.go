package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jackchuka/gitfx/internal/model"
)

func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
		return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top,
			strings.Join(sections, "\n"))
	}

	sections = append(sections, m.renderTable())
	sections = append(sections, m.renderFooter())

	view := lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top,
		strings.Join(sections, "\n"))

	// Overlay toasts on the view (bottom-right with padding)
	if len(m.toasts) > 0 {
		toast := m.renderToasts()
		tw := lipgloss.Width(toast)
		th := lipgloss.Height(toast)
		x := m.width - tw - 2
		y := m.height - th - 2
		view = placeOverlay(x, y, toast, view)
	}

	return view
}

func (m *Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color("44")).Bold(true).Render("gitfx")
	if m.opts.Mode != "" {
		title += styleDim.Render(" · " + m.opts.Mode)
	}

	var spinner string
	if len(m.repos) == 0 {
		spinner = "  " + renderSpinner(m.anim.frame) + " Waiting for repositories..."
	}

	s := m.summary
	bold := lipgloss.NewStyle().Bold(true)
	stats := styleDim.Render("repos ") + bold.Foreground(lipgloss.Color("255")).Render(fmt.Sprintf("%d", s.TotalRepos))
	if s.DirtyRepos > 0 {
		stats += "  " + styleDim.Render("dirty ") + bold.Foreground(colorDirtyAmber).Render(fmt.Sprintf("%d", s.DirtyRepos))
	}
	if s.AheadRepos > 0 {
		stats += "  " + styleDim.Render("ahead ") + bold.Foreground(colorCyan).Render(fmt.Sprintf("%d", s.AheadRepos))
	}
	if s.BehindRepos > 0 {
		stats += "  " + styleDim.Render("behind ") + bold.Foreground(colorDangerRed).Render(fmt.Sprintf("%d", s.BehindRepos))
	}
	if s.Effects > 0 {
		stats += "  " + styleDim.Render("effects ") + bold.Foreground(colorGold).Render(fmt.Sprintf("%d", s.Effects))
	}

	left := title + spinner
	if m.filterMode {
		left += "  " + m.filterInput.View()
	} else if m.filterText != "" {
		left += "  " + styleDim.Render("filter: "+m.filterText)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(stats)
	if gap < 1 {
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + stats
	sep := styleDim.Render(strings.Repeat("─", m.width))

	return line + "\n" + sep
}

// --- Table ---

func (m *Model) renderTable() string {
	visRows := m.visibleRows()
	tableHeight := visRows + 1 // +1 for header

	if len(m.rows) == 0 {
		msg := "No repos observed yet"
		if m.filterText != "" || m.viewFilter != ViewAll {
			msg = "No repos match filter"
		}
		lines := strings.Split("\n "+styleDim.Render(msg), "\n")
		for len(lines) < tableHeight {
			lines = append(lines, "")
		}
		return strings.Join(lines, "\n")
	}

	cols := computeColumns(m.width)

	hdr := " " +
		styleTableHdr.Render(padRight("REPO", cols.repo)) +
		styleTableHdr.Render(padRight("BRANCH", cols.branch)) +
		styleTableHdr.Render(padRight("SYNC", cols.sync)) +
		styleTableHdr.Render(padRight("HEAD", cols.head)) +
		styleTableHdr.Render(padRight("LAST EFFECT", cols.effect))

	// Keep cursor in view
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+visRows {
		m.scrollOffset = m.cursor - visRows + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}

	end := m.scrollOffset + visRows
	if end > len(m.rows) {
		end = len(m.rows)
	}

	lines := []string{hdr}
	for i := m.scrollOffset; i < end; i++ {
		lines = append(lines, m.renderTableRow(m.rows[i], cols, i == m.cursor, i%2 == 1))
	}
	for len(lines) < tableHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

type columnWidths struct {
	repo   int
	branch int
	sync   int
	head   int
	effect int
}

func computeColumns(width int) columnWidths {
	usable := width - 2 // leading space + margin
	if usable < 40 {
		usable = 40
	}

	c := columnWidths{
		repo:   usable * 30 / 100,
		branch: usable * 25 / 100,
		sync:   usable * 10 / 100,
		head:   usable * 10 / 100,
		effect: usable * 25 / 100,
	}

	if c.repo < 10 {
		c.repo = 10
	}
	if c.branch < 8 {
		c.branch = 8
	}
	if c.sync < 8 {
		c.sync = 8
	}
	if c.head < 9 {
		c.head = 9
	}
	return c
}

// --- Row rendering ---

// rowRenderer holds per-row styling state shared across cell renderers.
type rowRenderer struct {
	bg      func(lipgloss.Style) lipgloss.Style
	rowBg   lipgloss.Style
	hasGlow bool
	prefix  string
}

func (m *Model) newRowRenderer(repo *RepoRow, selected, alt bool) rowRenderer {
	step, hasGlow := m.anim.glowFade[repo.Key]

	bg := func(base lipgloss.Style) lipgloss.Style {
		if selected {
			return base.Background(colorSelBg)
		}
		if alt {
			return base.Background(colorRowAlt)
		}
		return base
	}

	var prefix string
	if hasGlow {
		prefix = lipgloss.NewStyle().Foreground(glowBorderColors[step]).Render("▎")
	}

	return rowRenderer{
		bg:      bg,
		rowBg:   bg(lipgloss.NewStyle()),
		hasGlow: hasGlow,
		prefix:  prefix,
	}
}

func (r rowRenderer) repoCell(repo *RepoRow, width int, selected bool) string {
	dot := r.bg(styleCleanTxt).Render(iconClean)
	if repo.Snap.Dirty {
		dot = r.bg(styleAmber).Render(iconDirty)
	}

	nameStyle := r.bg(styleRepoName)
	if selected && !r.hasGlow {
		nameStyle = nameStyle.Foreground(colorSelFg)
	}
	name := truncateWithEllipsis(repo.DisplayName(), width-3)
	return r.rowBg.Width(width).Render(dot + r.rowBg.Render(" ") + nameStyle.Render(name))
}

func (r rowRenderer) branchCell(h model.HeadInfo, width int) string {
	branch := h.Branch
	if branch == "" && h.Commit != "" {
		branch = model.ShortHash(h.Commit)
	}
	if branch == "" {
		branch = "???"
	}
	if h.Upstream != "" {
		branch += " → " + h.Upstream
	}
	return r.bg(styleBranch).Width(width).Render(truncateWithEllipsis(branch, width-1))
}

func (r rowRenderer) syncCell(s model.RepoSnap, width int) string {
	var content string
	if s.Ahead > 0 {
		content += r.bg(styleAhead).Render(fmt.Sprintf("%s%d", iconAhead, s.Ahead))
	}
	if s.Behind > 0 {
		if content != "" {
			content += r.rowBg.Render(" ")
		}
		content += r.bg(styleBehind).Render(fmt.Sprintf("%s%d", iconBehind, s.Behind))
	}
	if content == "" {
		content = r.bg(styleDim).Render("──")
	}
	return r.rowBg.Width(width).Render(content)
}

func (r rowRenderer) headCell(s model.RepoSnap, width int) string {
	commit := s.ShortCommit()
	if commit == "" {
		commit = "─"
	}
	return r.bg(styleDim).Width(width).Render(commit)
}

func (r rowRenderer) effectCell(repo *RepoRow, width int, now time.Time) string {
	if repo.LastEvent == "" {
		return r.bg(styleDim).Width(width).Render("─")
	}
	text := fmt.Sprintf("%s %s ago", repo.LastEvent, formatAge(now.Sub(repo.LastEventAt)))
	return r.bg(styleKey).Width(width).Render(truncateWithEllipsis(text, width-1))
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

func (m *Model) renderTableRow(row TableRow, cols columnWidths, selected, alt bool) string {
	repo := row.Repo
	if repo == nil {
		return ""
	}

	r := m.newRowRenderer(repo, selected, alt)

	leading := r.rowBg.Render(" ")
	if r.prefix != "" {
		leading = r.prefix
	}

	line := leading +
		r.repoCell(repo, cols.repo, selected) +
		r.branchCell(repo.Head, cols.branch) +
		r.syncCell(repo.Snap, cols.sync) +
		r.headCell(repo.Snap, cols.head) +
		r.effectCell(repo, cols.effect, m.now())

	return r.rowBg.Width(m.width).Render(line)
}

// --- Footer, toasts, help ---

func (m *Model) renderFooter() string {
	sep := styleDim.Render(strings.Repeat("─", m.width))

	type viewTab struct {
		key    string
		label  string
		filter ViewFilter
	}
	tabs := []viewTab{
		{"1", "all", ViewAll},
		{"2", "dirty", ViewDirty},
		{"3", "ahead", ViewAhead},
		{"4", "behind", ViewBehind},
		{"5", "recent", ViewRecent},
	}

	var parts []string
	parts = append(parts, styleKey.Render("/")+" search")
	parts = append(parts, styleKey.Render("t")+" test effect")
	parts = append(parts, styleKey.Render("e")+" editor")

	for _, t := range tabs {
		if m.viewFilter == t.filter {
			parts = append(parts, styleActiveTab.Render(t.key+" "+t.label))
		} else {
			parts = append(parts, styleKey.Render(t.key)+" "+t.label)
		}
	}

	parts = append(parts, styleKey.Render("?")+" help")
	parts = append(parts, styleKey.Render("q")+" quit")

	return sep + "\n " + truncateWithEllipsis(strings.Join(parts, "  "), m.width-2)
}

func (m *Model) renderToasts() string {
	var toastStrs []string
	for _, t := range m.toasts {
		bc, icon := toastLook(t.Kind)
		body := icon + lipgloss.NewStyle().Bold(true).Render(t.Title)
		if t.Detail != "" {
			body += "\n" + styleDim.Render(t.Detail)
		}
		toastStrs = append(toastStrs, styleToastBox.BorderForeground(bc).Render(body))
	}
	return strings.Join(toastStrs, "\n")
}

func (m *Model) renderHelp() string {
	content := m.keys.helpText()

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorCyan).
		Padding(1, 2).
		Width(50).
		Render(styleTitle.Render("HELP") + "\n\n" + content + "\n\n" + styleDim.Render("press any key to close"))

	availH := m.height - 4
	if availH < 10 {
		availH = 10
	}
	return lipgloss.Place(m.width, availH, lipgloss.Center, lipgloss.Center, box)
}

// --- Layout utilities ---

// placeOverlay writes fg on top of bg at the given column (x) and row (y).
// It handles ANSI-styled strings correctly using ansi.Cut.
func placeOverlay(x, y int, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")

	if x < 0 {
		x = 0
	}
	for i, fgLine := range fgLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLine := bgLines[bgIdx]
		fgW := ansi.StringWidth(fgLine)
		bgW := ansi.StringWidth(bgLine)

		if x >= bgW {
			bgLines[bgIdx] = bgLine + strings.Repeat(" ", x-bgW) + fgLine
			continue
		}

		left := ansi.Cut(bgLine, 0, x)
		var right string
		if x+fgW < bgW {
			right = ansi.Cut(bgLine, x+fgW, bgW)
		}
		bgLines[bgIdx] = left + fgLine + right
	}
	return strings.Join(bgLines, "\n")
}
