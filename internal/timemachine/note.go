package timemachine

import (
	"errors"
	"io/fs"
	"time"

	"github.com/starford/timemachine/internal/apperr"
	"github.com/starford/timemachine/internal/parser"
	"github.com/starford/timemachine/internal/storage"
)

// Note is a single vault note opened from a report.
type Note struct {
	Path    string     `json:"path"`
	Title   string     `json:"title"`
	Date    *time.Time `json:"date,omitempty"`
	Content string     `json:"content"`
}

// ReadNote loads path from store and reads its date from property.
// Missing files and paths outside the vault yield apperr.ErrNotFound.
func ReadNote(store storage.Provider, path, property string) (*Note, error) {
	if property == "" {
		property = parser.DefaultDateProperty
	}
	data, err := store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrOutsideVault) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	res := parser.Parse(data)
	n := &Note{
		Path:    path,
		Title:   DisplayTitle(path, res.Title),
		Content: string(data),
	}
	if d, ok := res.Date(property); ok {
		n.Date = &d
	}
	return n, nil
}
