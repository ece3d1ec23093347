// Package models defines the domain types for the time machine.
package models

import (
	"time"

	"github.com/starford/timemachine/internal/recency"
)

// Document is a vault note as seen by a source, before routing.
// Date stays nil until the frontmatter has been parsed and carries a usable value.
type Document struct {
	Path  string     `json:"path"`
	Title string     `json:"title,omitempty"`
	Date  *time.Time `json:"date,omitempty"`
}

// Dated converts the document into a routable item. It reports false when
// the document has no date, so undated notes never reach a selector.
func (d Document) Dated() (recency.Item, bool) {
	if d.Date == nil {
		return recency.Item{}, false
	}
	return recency.Item{ID: d.Path, Title: d.Title, Date: *d.Date}, true
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
