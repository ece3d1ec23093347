package timemachine

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/starford/timemachine/internal/horizon"
)

// Report is the outcome of one run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
	Stats       Stats     `json:"stats"`
}

// Stats counts what a run saw.
type Stats struct {
	Documents int `json:"documents"`
	Undated   int `json:"undated"`
	Unrouted  int `json:"unrouted"`
}

// Section lists the notes retained by one horizon, newest first.
type Section struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Boundary time.Time `json:"boundary"`
	Notes    []Entry   `json:"notes"`
}

// Entry is one selected note.
type Entry struct {
	Path  string    `json:"path"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

func newReport(runID string, now time.Time, results []horizon.Result, stats Stats) *Report {
	r := &Report{
		RunID:       runID,
		GeneratedAt: now,
		Sections:    make([]Section, 0, len(results)),
		Stats:       stats,
	}
	for _, res := range results {
		sec := Section{
			Key:      res.Key,
			Label:    res.Label,
			Boundary: res.Boundary,
			Notes:    make([]Entry, 0, len(res.Items)),
		}
		for _, it := range res.Items {
			sec.Notes = append(sec.Notes, Entry{
				Path:  it.ID,
				Title: DisplayTitle(it.ID, it.Title),
				Date:  it.Date,
			})
		}
		r.Sections = append(r.Sections, sec)
	}
	return r
}

// DisplayTitle returns title, or the file name without extension when the
// note has none.
func DisplayTitle(p, title string) string {
	if title != "" {
		return title
	}
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

// FormatDate renders t as M/D/YYYY.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

// WriteText renders the report as plain text: one header per horizon
// followed by its notes.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	for i, sec := range r.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s - %s\n", sec.Label, FormatDate(sec.Boundary))
		if len(sec.Notes) == 0 {
			b.WriteString("  (no notes)\n")
			continue
		}
		for _, n := range sec.Notes {
			fmt.Fprintf(&b, "  %s: %s\n", n.Title, FormatDate(n.Date))
			fmt.Fprintf(&b, "    %s\n", n.Path)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
