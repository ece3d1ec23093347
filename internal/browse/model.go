// Package browse is the terminal browser for time machine reports.
package browse

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/starford/timemachine/internal/timemachine"
)

// Loader produces a fresh report.
type Loader func(ctx context.Context) (*timemachine.Report, error)

// Opener builds the command that opens a vault-relative note path.
type Opener func(path string) (*exec.Cmd, error)

type reportLoadedMsg struct {
	report *timemachine.Report
	err    error
}

type editorClosedMsg struct{ err error }

var keys = struct {
	Quit    key.Binding
	Open    key.Binding
	Refresh key.Binding
}{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Open:    key.NewBinding(key.WithKeys("enter")),
	Refresh: key.NewBinding(key.WithKeys("r")),
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#484f58"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149"))
)

type noteItem struct {
	section string
	entry   timemachine.Entry
	now     time.Time
}

func (i noteItem) Title() string { return i.entry.Title }

func (i noteItem) Description() string {
	return fmt.Sprintf("%s · %s · %s", i.section,
		humanize.RelTime(i.entry.Date, i.now, "ago", "from now"), i.entry.Path)
}

func (i noteItem) FilterValue() string { return i.entry.Title + " " + i.entry.Path }

// Model lists the notes of a report grouped by horizon.
type Model struct {
	list     list.Model
	load     Loader
	open     Opener
	report   *timemachine.Report
	status   string
	err      error
	quitting bool
}

// New creates the browser model. The first report is loaded by Init.
func New(load Loader, open Opener) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("#58a6ff"))

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Time Machine"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	return Model{list: l, load: load, open: open}
}

// Init loads the first report.
func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m Model) loadCmd() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		r, err := load(context.Background())
		return reportLoadedMsg{report: r, err: err}
	}
}

func (m *Model) setReport(r *timemachine.Report) {
	m.report = r
	var items []list.Item
	for _, sec := range r.Sections {
		for _, e := range sec.Notes {
			items = append(items, noteItem{section: sec.Label, entry: e, now: r.GeneratedAt})
		}
	}
	m.list.SetItems(items)
	m.status = fmt.Sprintf("%d notes across %d horizons", len(items), len(r.Sections))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-2, msg.Height-4)
		return m, nil

	case reportLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.setReport(msg.report)
		return m, nil

	case editorClosedMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			m.status = "reloading…"
			return m, m.loadCmd()
		case key.Matches(msg, keys.Open):
			item, ok := m.list.SelectedItem().(noteItem)
			if !ok || m.open == nil {
				return m, nil
			}
			cmd, err := m.open(item.entry.Path)
			if err != nil {
				m.err = err
				return m, nil
			}
			return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
				return editorClosedMsg{err: err}
			})
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list with a header and key help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var header string
	if m.report != nil {
		var parts []string
		for _, sec := range m.report.Sections {
			parts = append(parts, fmt.Sprintf("%s %s (%d)", sec.Label, timemachine.FormatDate(sec.Boundary), len(sec.Notes)))
		}
		header = headerStyle.Render("  " + strings.Join(parts, "  ·  "))
	}
	footer := helpStyle.Render("  " + m.status + "   [enter]open [/]filter [r]eload [q]uit")
	if m.err != nil {
		footer = errorStyle.Render("  error: "+m.err.Error()) + "\n" + footer
	}
	return strings.Join([]string{header, m.list.View(), footer}, "\n")
}

// Run starts the browser in the alternate screen and blocks until it exits.
func Run(load Loader, open Opener) error {
	_, err := tea.NewProgram(New(load, open), tea.WithAltScreen()).Run()
	return err
}
