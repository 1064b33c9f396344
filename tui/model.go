// Package tui is a terminal live tail for a running logview daemon.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/projecteru2/logview/view"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Fetcher is what the model needs from the daemon
type Fetcher interface {
	Log(ctx context.Context, n int) (string, error)
	Clear(ctx context.Context) (string, error)
}

type tickMsg time.Time

type contentMsg struct {
	text string
	err  error
}

type clearedMsg struct {
	text string
	err  error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	dangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Model shows the log in a viewport, following the tail until the user scrolls
type Model struct {
	fetcher  Fetcher
	session  *view.Session
	viewport viewport.Model
	interval time.Duration
	timeout  time.Duration

	title   string
	content string
	lines   int
	notice  string
	failed  bool
	ready   bool
}

// New .
func New(fetcher Fetcher, title string, interval time.Duration) Model {
	return Model{
		fetcher:  fetcher,
		session:  view.NewSession(),
		viewport: viewport.New(80, 20),
		interval: interval,
		timeout:  interval + 5*time.Second,
		title:    title,
	}
}

// Init .
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		text, err := m.fetcher.Log(ctx, 0)
		return contentMsg{text: text, err: err}
	}
}

func (m Model) clear() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		text, err := m.fetcher.Clear(ctx)
		return clearedMsg{text: text, err: err}
	}
}

// Update .
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.ready = true
		m.place()
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())
	case contentMsg:
		if msg.err != nil {
			// keep what is on screen
			m.notice, m.failed = msg.err.Error(), true
			return m, nil
		}
		m.notice, m.failed = "", false
		m.setContent(msg.text)
		return m, nil
	case clearedMsg:
		if msg.err != nil {
			m.notice, m.failed = msg.err.Error(), true
			return m, nil
		}
		m.notice, m.failed = "log cleared", false
		m.setContent(msg.text)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			m.notice, m.failed = "clearing...", false
			return m, m.clear()
		case "G", "end":
			m.session.Reset()
			m.place()
			return m, nil
		case "r":
			return m, m.fetch()
		}
	}

	before := m.viewport.YOffset
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	if m.viewport.YOffset != before {
		m.session.Scroll(m.viewport.YOffset)
	}
	return m, cmd
}

func (m *Model) setContent(text string) {
	m.content = text
	m.lines = strings.Count(text, "\n") + 1
	m.viewport.SetContent(text)
	m.place()
}

// place restores the saved offset, or pins to the bottom when following
func (m *Model) place() {
	offset := m.session.Place(m.viewport.TotalLineCount())
	if _, follow := m.session.State(); follow {
		m.viewport.GotoBottom()
		return
	}
	m.viewport.SetYOffset(offset)
}

// View .
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	follow := "off"
	if _, ok := m.session.State(); ok {
		follow = "on"
	}
	header := titleStyle.Render(m.title) + faintStyle.Render(fmt.Sprintf("  %d lines  follow %s", m.lines, follow))

	footer := faintStyle.Render("↑/↓ scroll  G follow  c clear  r refresh  q quit")
	if m.notice != "" {
		style := faintStyle
		if m.failed {
			style = dangerStyle
		}
		footer = style.Render(m.notice)
	}
	return header + "\n" + m.viewport.View() + "\n" + footer
}

// Run starts the program until the user quits or ctx is done
func Run(ctx context.Context, fetcher Fetcher, title string, interval time.Duration) error {
	p := tea.NewProgram(New(fetcher, title, interval), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
