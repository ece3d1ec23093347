package index

import (
	"context"
	"time"
)

// NoteIndex defines the interface for date cache operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(n NoteRow) error
	DeleteNote(path string) error
	GetNote(path string) (*NoteRow, error)
	Stamps() (map[string]Stamp, error)
	EachDated(ctx context.Context, fn func(path, title string, created time.Time) error) error
	Count() (total, dated int, err error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
