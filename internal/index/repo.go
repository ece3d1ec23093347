package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/timemachine/internal/apperr"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	Size      int64
	ModTime   time.Time
	Property  string
	Created   *time.Time
	IndexedAt time.Time
}

// Stamp is what Sync compares against the file system to decide whether a
// note must be read again.
type Stamp struct {
	Size     int64
	ModTime  time.Time
	Property string
}

// Matches reports whether the cached row is still valid for a file with the
// given size and modification time, parsed with property.
func (s Stamp) Matches(size int64, modTime time.Time, property string) bool {
	return s.Size == size && s.ModTime.Equal(modTime) && s.Property == property
}

// UpsertNote inserts or replaces a note row.
func (db *DB) UpsertNote(n NoteRow) error {
	if n.IndexedAt.IsZero() {
		n.IndexedAt = time.Now()
	}
	var created sql.NullTime
	if n.Created != nil {
		created = sql.NullTime{Time: *n.Created, Valid: true}
	}
	_, err := db.conn.Exec(`
		INSERT INTO notes (path, title, checksum, size, mod_time, property, created, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			size       = excluded.size,
			mod_time   = excluded.mod_time,
			property   = excluded.property,
			created    = excluded.created,
			indexed_at = excluded.indexed_at
	`, n.Path, n.Title, n.Checksum, n.Size, n.ModTime, n.Property, created, n.IndexedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}
	return nil
}

// DeleteNote removes a note row.
func (db *DB) DeleteNote(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return nil
}

// GetNote returns the cached row for path.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	var (
		n       NoteRow
		modTime sql.NullTime
		created sql.NullTime
	)
	err := db.conn.QueryRow(`
		SELECT path, title, checksum, size, mod_time, property, created, indexed_at
		FROM notes WHERE path = ?
	`, path).Scan(&n.Path, &n.Title, &n.Checksum, &n.Size, &modTime, &n.Property, &created, &n.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	n.ModTime = modTime.Time
	if created.Valid {
		t := created.Time
		n.Created = &t
	}
	return &n, nil
}

// Stamps returns the cache stamp of every indexed note keyed by path.
func (db *DB) Stamps() (map[string]Stamp, error) {
	rows, err := db.conn.Query(`SELECT path, size, mod_time, property FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: stamps: %w", err)
	}
	defer rows.Close()
	out := make(map[string]Stamp)
	for rows.Next() {
		var (
			p       string
			s       Stamp
			modTime sql.NullTime
		)
		if err := rows.Scan(&p, &s.Size, &modTime, &s.Property); err != nil {
			return nil, err
		}
		s.ModTime = modTime.Time
		out[p] = s
	}
	return out, rows.Err()
}

// EachDated calls fn for every note with a cached creation date. Iteration
// stops at the first error returned by fn or when ctx is cancelled.
func (db *DB) EachDated(ctx context.Context, fn func(path, title string, created time.Time) error) error {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, title, created FROM notes WHERE created IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("index: dated notes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p, title string
			created  time.Time
		)
		if err := rows.Scan(&p, &title, &created); err != nil {
			return fmt.Errorf("index: scan dated note: %w", err)
		}
		if err := fn(p, title, created); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of indexed notes and how many of them carry a date.
func (db *DB) Count() (total, dated int, err error) {
	err = db.conn.QueryRow(`SELECT count(*), count(created) FROM notes`).Scan(&total, &dated)
	if err != nil {
		return 0, 0, fmt.Errorf("index: count: %w", err)
	}
	return total, dated, nil
}
