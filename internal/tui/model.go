package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nao1215/photobrowse/internal/browser"
	"github.com/nao1215/photobrowse/internal/dispatch"
)

// chromeLines is the height of the header and footer.
const chromeLines = 2

const help = "j/k scroll · space/b page · g/G first/last · r retry · q quit"

// Model is the bubbletea model of the viewer.
type Model struct {
	viewer *browser.Viewer
	board  *Board
	queue  *dispatch.Manual
	waker  *Waker
	title  string

	width  int
	height int
	status string
}

// Option configures a Model.
type Option func(*Model)

// WithTitle shows title next to the page counter.
func WithTitle(title string) Option {
	return func(m *Model) {
		m.title = title
	}
}

// New creates a Model. board must be the view factory and container of the
// viewer's controller, queue its control queue and waker the queue's notifier.
func New(viewer *browser.Viewer, board *Board, queue *dispatch.Manual, waker *Waker, opts ...Option) *Model {
	m := &Model{
		viewer: viewer,
		board:  board,
		queue:  queue,
		waker:  waker,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. Work posted to the control queue while
// handling msg runs before Update returns.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case drainMsg:
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewer.Layout(float64(max(1, m.height-chromeLines)))
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}

	m.drain()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.status = ""
	extent := m.viewer.Extent()
	current := m.viewer.CurrentPage()

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "j", "down":
		m.viewer.ScrollBy(extent / 4)
	case "k", "up":
		m.viewer.ScrollBy(-extent / 4)
	case " ", "space", "pgdown", "f":
		m.viewer.JumpTo(current + 1)
	case "b", "pgup":
		m.viewer.JumpTo(current - 1)
	case "g", "home":
		m.viewer.JumpTo(0)
	case "G", "end":
		m.viewer.JumpTo(m.viewer.Count() - 1)
	case "r":
		if m.viewer.RetryCurrent() {
			m.status = fmt.Sprintf("retrying page %d", current+1)
		} else {
			m.status = fmt.Sprintf("page %d has not failed", current+1)
		}
	}
	return nil
}

func (m *Model) drain() {
	if m.waker != nil {
		m.waker.drained()
	}
	m.queue.RunPending()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.height == 0 || m.width == 0 {
		return ""
	}

	header := m.viewer.Title()
	if m.title != "" {
		header += "  " + m.title
	}
	footer := help
	if m.status != "" {
		footer = m.status
	}

	var sb strings.Builder
	sb.WriteString(styleHeader.Render(clip(header, m.width)))
	sb.WriteString("\n")
	for _, line := range m.viewport() {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(styleFooter.Render(clip(footer, m.width)))
	return sb.String()
}

// viewport returns the extent lines visible at the current offset. It spans
// at most two pages.
func (m *Model) viewport() []string {
	extent := int(m.viewer.Extent())
	if extent <= 0 {
		return nil
	}
	if m.viewer.Count() == 0 {
		lines := make([]string, extent)
		lines[0] = styleEmpty.Render(clip("(empty gallery)", m.width))
		return lines
	}

	offset := int(math.Round(m.viewer.Offset()))
	first := offset / extent
	lines := make([]string, 0, 2*extent)
	for p := first; p <= first+1; p++ {
		lines = append(lines, m.pageLines(p, extent)...)
	}
	skip := offset - first*extent
	return lines[skip : skip+extent]
}

func (m *Model) pageLines(page, extent int) []string {
	if card, ok := m.board.Card(page); ok {
		return card.Render(m.width, extent)
	}
	return make([]string, extent)
}

// Run starts a full-screen program for m and blocks until it quits or ctx ends.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if m.waker != nil {
		m.waker.Attach(p)
	}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
