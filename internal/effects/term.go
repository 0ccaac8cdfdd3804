package effects

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jackchuka/gitfx/internal/model"
)

var (
	kindColors = map[model.EffectKind]lipgloss.Color{
		model.KindSuccess: lipgloss.Color("71"),
		model.KindError:   lipgloss.Color("167"),
		model.KindInfo:    lipgloss.Color("73"),
	}

	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	cardTitle  = lipgloss.NewStyle().Bold(true)
	cardDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	cardDetail = lipgloss.NewStyle().Foreground(lipgloss.Color("253"))
	eventIcons = map[model.EffectEvent]string{
		model.EventPush:   "↑",
		model.EventPull:   "↓",
		model.EventCommit: "●",
		model.EventManual: "⚡",
	}
)

// TermSinkFactory renders effects as bordered cards on W. Used when no
// dashboard is running.
type TermSinkFactory struct {
	W io.Writer
}

func (f TermSinkFactory) Open() (Sink, error) {
	return &termSink{w: f.W}, nil
}

type termSink struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func (s *termSink) Fire(p model.EffectPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	_, err := fmt.Fprintln(s.w, RenderCard(p))
	return err
}

func (s *termSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// RenderCard formats p as a bordered card colored by its kind.
func RenderCard(p model.EffectPayload) string {
	color, ok := kindColors[p.Kind]
	if !ok {
		color = kindColors[model.KindInfo]
	}
	icon := eventIcons[p.Event]
	if icon == "" {
		icon = "•"
	}

	lines := []string{
		cardTitle.Foreground(color).Render(icon + " " + p.Title),
	}
	if p.Detail != "" {
		lines = append(lines, cardDetail.Render(p.Detail))
	}
	if p.RepoPath != "" {
		lines = append(lines, cardDim.Render(p.RepoPath))
	}

	return cardStyle.BorderForeground(color).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
