package timemachine

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/timemachine/internal/index"
	"github.com/starford/timemachine/internal/models"
	"github.com/starford/timemachine/internal/parser"
	"github.com/starford/timemachine/internal/storage"
)

// Source enumerates the documents of one run. Each document is emitted at
// most once, in any order; emit may be called from several goroutines.
// A non-nil error from emit stops enumeration and is returned.
type Source interface {
	Documents(ctx context.Context, emit func(models.Document) error) error
}

// VaultSource reads every note straight from the vault.
type VaultSource struct {
	Store      storage.Provider
	Property   string
	IgnoreDirs []string
	Workers    int
	Logger     *slog.Logger
}

// Documents lists the vault, reads and parses notes concurrently and emits
// one document per readable note. Unreadable notes are logged and skipped.
func (v *VaultSource) Documents(ctx context.Context, emit func(models.Document) error) error {
	property := v.Property
	if property == "" {
		property = parser.DefaultDateProperty
	}
	workers := v.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := v.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metas, err := v.Store.List("")
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, m := range metas {
		if storage.IsIgnored(m.Path, v.IgnoreDirs) {
			continue
		}
		if err := gCtx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := v.Store.Read(m.Path)
			if err != nil {
				logger.Warn("vault source: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				return nil
			}
			res := parser.Parse(data)
			doc := models.Document{Path: m.Path, Title: res.Title}
			if d, ok := res.Date(property); ok {
				doc.Date = &d
			}
			return emit(doc)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// IndexSource emits the dated notes held by the date cache. Notes without a
// date never leave the cache.
type IndexSource struct {
	DB index.NoteIndex
}

// Documents streams every dated row of the cache.
func (s *IndexSource) Documents(ctx context.Context, emit func(models.Document) error) error {
	return s.DB.EachDated(ctx, func(path, title string, created time.Time) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := created
		return emit(models.Document{Path: path, Title: title, Date: &d})
	})
}

// SliceSource emits a fixed list of documents.
type SliceSource []models.Document

// Documents emits the documents in order.
func (s SliceSource) Documents(ctx context.Context, emit func(models.Document) error) error {
	for _, d := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(d); err != nil {
			return err
		}
	}
	return nil
}
