package timemachine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/timemachine/internal/apperr"
	tu "github.com/starford/timemachine/internal/testutil"
)

func TestWriteText(t *testing.T) {
	r := &Report{Sections: []Section{
		{
			Label:    "A Week Ago",
			Boundary: time.Date(2024, 3, 24, 15, 30, 0, 0, time.UTC),
			Notes: []Entry{
				{Path: "journal/b.md", Title: "Beta", Date: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)},
				{Path: "a.md", Title: "a", Date: time.Date(2023, 12, 5, 0, 0, 0, 0, time.UTC)},
			},
		},
		{Label: "A Year Ago", Boundary: time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC)},
	}}

	var b strings.Builder
	if err := r.WriteText(&b); err != nil {
		t.Fatal(err)
	}
	want := "A Week Ago - 3/24/2024\n" +
		"  Beta: 3/20/2024\n" +
		"    journal/b.md\n" +
		"  a: 12/5/2023\n" +
		"    a.md\n" +
		"\n" +
		"A Year Ago - 3/31/2023\n" +
		"  (no notes)\n"
	if b.String() != want {
		t.Errorf("text =\n%s\nwant\n%s", b.String(), want)
	}
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		path, title, want string
	}{
		{"a/b/note.md", "", "note"},
		{"note.md", "Title", "Title"},
		{"dir/no-ext", "", "no-ext"},
	}
	for _, tt := range tests {
		if got := DisplayTitle(tt.path, tt.title); got != tt.want {
			t.Errorf("DisplayTitle(%q, %q) = %q, want %q", tt.path, tt.title, got, tt.want)
		}
	}
}

func TestReadNote(t *testing.T) {
	_, store := tu.TestVault(t)
	tu.WriteNote(t, store, "dir/n.md", "Hello", "2021-04-05")

	n, err := ReadNote(store, "dir/n.md", "")
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != "Hello" || n.Date == nil || n.Date.Day() != 5 || !strings.Contains(n.Content, "# Hello") {
		t.Errorf("note = %+v", n)
	}

	if _, err := ReadNote(store, "missing.md", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
