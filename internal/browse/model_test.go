package browse

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/timemachine/internal/timemachine"
)

var genAt = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func sampleReport() *timemachine.Report {
	return &timemachine.Report{
		GeneratedAt: genAt,
		Sections: []timemachine.Section{
			{Key: "week", Label: "A Week Ago", Boundary: genAt.AddDate(0, 0, -7), Notes: []timemachine.Entry{
				{Path: "journal/b.md", Title: "Beta", Date: genAt.AddDate(0, 0, -10)},
				{Path: "a.md", Title: "Alpha", Date: genAt.AddDate(-1, 0, 0)},
			}},
			{Key: "year", Label: "A Year Ago", Boundary: genAt.AddDate(-1, 0, 0), Notes: []timemachine.Entry{
				{Path: "a.md", Title: "Alpha", Date: genAt.AddDate(-1, 0, 0)},
			}},
		},
	}
}

func loaded(t *testing.T, open Opener) Model {
	t.Helper()
	m := New(func(context.Context) (*timemachine.Report, error) { return sampleReport(), nil }, open)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	msg := m.Init()()
	next, _ = next.Update(msg)
	return next.(Model)
}

func TestModel_LoadsReport(t *testing.T) {
	m := loaded(t, nil)
	if got := len(m.list.Items()); got != 3 {
		t.Fatalf("items = %d, want 3", got)
	}
	first := m.list.Items()[0].(noteItem)
	if first.entry.Path != "journal/b.md" || first.section != "A Week Ago" {
		t.Errorf("first = %+v", first)
	}
	if !strings.Contains(first.Description(), "1 week ago") {
		t.Errorf("description = %q", first.Description())
	}
	view := m.View()
	for _, want := range []string{"A Week Ago 3/24/2024 (2)", "A Year Ago 3/31/2023 (1)", "3 notes across 2 horizons"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_LoadError(t *testing.T) {
	m := New(func(context.Context) (*timemachine.Report, error) { return nil, errors.New("boom") }, nil)
	next, _ := m.Update(m.Init()())
	if !strings.Contains(next.View(), "error: boom") {
		t.Errorf("view = %q", next.View())
	}
}

func TestModel_Quit(t *testing.T) {
	m := loaded(t, nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if next.View() != "" {
		t.Error("view should be empty after quit")
	}
}

func TestModel_OpenSelected(t *testing.T) {
	var opened string
	m := loaded(t, func(path string) (*exec.Cmd, error) {
		opened = path
		return exec.Command("true"), nil
	})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected exec command")
	}
	if opened != "journal/b.md" {
		t.Errorf("opened = %q", opened)
	}
}

func TestModel_OpenError(t *testing.T) {
	m := loaded(t, func(string) (*exec.Cmd, error) { return nil, errors.New("no editor") })
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command")
	}
	if !strings.Contains(next.View(), "error: no editor") {
		t.Error("error not shown")
	}
}

func TestModel_Refresh(t *testing.T) {
	calls := 0
	m := New(func(context.Context) (*timemachine.Report, error) {
		calls++
		return sampleReport(), nil
	}, nil)
	next, _ := m.Update(m.Init()())
	_, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("expected reload command")
	}
	cmd()
	if calls != 2 {
		t.Errorf("loads = %d, want 2", calls)
	}
}
