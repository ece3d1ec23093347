package index

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/timemachine/internal/checksum"
	"github.com/starford/timemachine/internal/models"
	"github.com/starford/timemachine/internal/parser"
	"github.com/starford/timemachine/internal/storage"
)

// Options control which notes are cached and how their dates are read.
type Options struct {
	Property   string
	IgnoreDirs []string
	Workers    int
}

func (o Options) withDefaults() Options {
	if o.Property == "" {
		o.Property = parser.DefaultDateProperty
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// SyncStats summarises one Sync pass.
type SyncStats struct {
	Indexed   int
	Unchanged int
	Removed   int
}

// Sync walks the vault and brings the index up to date:
//   - new/changed files (or files parsed with another property) are read
//     concurrently, parsed, and upserted
//   - files removed from disk or now ignored are deleted from the index
func Sync(ctx context.Context, db *DB, store storage.Provider, opts Options, logger *slog.Logger) (SyncStats, error) {
	return syncVault(ctx, db, store, opts, logger, nil)
}

func syncVault(ctx context.Context, db *DB, store storage.Provider, opts Options, logger *slog.Logger, cb EventCallback) (SyncStats, error) {
	opts = opts.withDefaults()
	var stats SyncStats

	metas, err := store.List("")
	if err != nil {
		return stats, err
	}
	stamps, err := db.Stamps()
	if err != nil {
		return stats, err
	}

	disk := make(map[string]struct{}, len(metas))
	var pending []models.NoteMetadata
	for _, m := range metas {
		if storage.IsIgnored(m.Path, opts.IgnoreDirs) {
			continue
		}
		disk[m.Path] = struct{}{}
		if st, ok := stamps[m.Path]; ok && st.Matches(m.Size, m.UpdatedAt, opts.Property) {
			stats.Unchanged++
			continue
		}
		pending = append(pending, m)
	}

	var (
		mu   sync.Mutex
		rows []NoteRow
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, m := range pending {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := store.Read(m.Path)
			if err != nil {
				logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				return nil
			}
			row := buildRow(m, data, opts.Property)
			mu.Lock()
			rows = append(rows, row)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	for _, row := range rows {
		if err := db.UpsertNote(row); err != nil {
			logger.Warn("sync: index failed", slog.String("path", row.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
		logger.Debug("sync: indexed", slog.String("path", row.Path))
		if cb != nil {
			kind := "updated"
			if _, ok := stamps[row.Path]; !ok {
				kind = "created"
			}
			cb(kind, row.Path)
		}
	}

	// Remove stale and newly ignored entries.
	for p := range stamps {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
		if cb != nil {
			cb("deleted", p)
		}
	}

	return stats, nil
}

// buildRow parses data and turns it into a cache row.
func buildRow(meta models.NoteMetadata, data []byte, property string) NoteRow {
	res := parser.Parse(data)
	row := NoteRow{
		Path:      meta.Path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Size:      meta.Size,
		ModTime:   meta.UpdatedAt,
		Property:  property,
		IndexedAt: time.Now(),
	}
	if d, ok := res.Date(property); ok {
		row.Created = &d
	}
	return row
}
