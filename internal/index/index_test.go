package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/timemachine/internal/apperr"
	"github.com/starford/timemachine/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "timemachine-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestUpsertAndGetNote(t *testing.T) {
	db := testDB(t)
	created := time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC)
	mod := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	row := NoteRow{
		Path:     "hello.md",
		Title:    "Hello World",
		Checksum: "abc123",
		Size:     42,
		ModTime:  mod,
		Property: "created-iso",
		Created:  &created,
	}
	if err := db.UpsertNote(row); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	got, err := db.GetNote("hello.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "Hello World" || got.Size != 42 || got.Property != "created-iso" {
		t.Errorf("row = %+v", got)
	}
	if got.Created == nil || !got.Created.Equal(created) {
		t.Errorf("created = %v, want %s", got.Created, created)
	}
	if !got.ModTime.Equal(mod) {
		t.Errorf("mod_time = %s, want %s", got.ModTime, mod)
	}
	if got.Checksum != "abc123" {
		t.Errorf("checksum = %q, want %q", got.Checksum, "abc123")
	}
}

func TestUpsertClearsDate(t *testing.T) {
	db := testDB(t)
	created := time.Now().Add(-time.Hour)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Created: &created})
	_ = db.UpsertNote(NoteRow{Path: "a.md"})

	got, err := db.GetNote("a.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Created != nil {
		t.Errorf("created = %v, want nil", got.Created)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetNote("missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Checksum: "x"})
	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := db.GetNote("del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted note still indexed: %v", err)
	}
}

func TestEachDatedAndCount(t *testing.T) {
	db := testDB(t)
	d1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "A", Created: &d1})
	_ = db.UpsertNote(NoteRow{Path: "b.md", Title: "B", Created: &d2})
	_ = db.UpsertNote(NoteRow{Path: "undated.md"})

	seen := map[string]time.Time{}
	err := db.EachDated(context.Background(), func(path, title string, created time.Time) error {
		seen[path] = created
		return nil
	})
	if err != nil {
		t.Fatalf("EachDated: %v", err)
	}
	if len(seen) != 2 || !seen["a.md"].Equal(d1) || !seen["b.md"].Equal(d2) {
		t.Errorf("seen = %v", seen)
	}

	total, dated, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 3 || dated != 2 {
		t.Errorf("count = %d/%d, want 3/2", total, dated)
	}
}

func TestEachDated_StopsOnError(t *testing.T) {
	db := testDB(t)
	d := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "a.md", Created: &d})
	_ = db.UpsertNote(NoteRow{Path: "b.md", Created: &d})

	stop := errors.New("stop")
	calls := 0
	err := db.EachDated(context.Background(), func(string, string, time.Time) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func syncEnv(t *testing.T) (string, *storage.FS, *DB) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store, testDB(t)
}

// writeFile writes a vault file with plain os calls, creating directories.
func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	abs := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSync_IndexesDates(t *testing.T) {
	dir, store, db := syncEnv(t)
	writeFile(t, dir, "dated.md", "---\ncreated-iso: 2020-05-06\n---\n# Dated\n")
	writeFile(t, dir, "undated.md", "# Undated\n")
	writeFile(t, dir, "templates/t.md", "---\ncreated-iso: 2020-05-06\n---\n")

	stats, err := Sync(context.Background(), db, store, Options{IgnoreDirs: []string{"templates"}}, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.Indexed != 2 {
		t.Errorf("indexed = %d, want 2", stats.Indexed)
	}
	row, err := db.GetNote("dated.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if row.Created == nil || row.Title != "Dated" {
		t.Errorf("row = %+v", row)
	}
	if _, err := db.GetNote("templates/t.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("ignored note indexed: %v", err)
	}
}

func TestSync_SkipsUnchangedAndRemovesStale(t *testing.T) {
	dir, store, db := syncEnv(t)
	writeFile(t, dir, "keep.md", "---\ncreated-iso: 2020-01-01\n---\n")
	writeFile(t, dir, "gone.md", "---\ncreated-iso: 2020-01-01\n---\n")

	if _, err := Sync(context.Background(), db, store, Options{}, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	_ = os.Remove(filepath.Join(dir, "gone.md"))

	stats, err := Sync(context.Background(), db, store, Options{}, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.Unchanged != 1 || stats.Removed != 1 || stats.Indexed != 0 {
		t.Errorf("stats = %+v, want 1 unchanged, 1 removed", stats)
	}
	if _, err := db.GetNote("gone.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stale row kept: %v", err)
	}
}

func TestSync_PropertyChangeReparses(t *testing.T) {
	dir, store, db := syncEnv(t)
	writeFile(t, dir, "n.md", "---\ncreated-iso: 2020-01-01\ncreated: 2019-01-01\n---\n")

	if _, err := Sync(context.Background(), db, store, Options{}, quietLogger()); err != nil {
		t.Fatal(err)
	}
	stats, err := Sync(context.Background(), db, store, Options{Property: "created"}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Indexed != 1 {
		t.Errorf("indexed = %d, want 1", stats.Indexed)
	}
	row, _ := db.GetNote("n.md")
	if row.Created == nil || row.Created.Year() != 2019 {
		t.Errorf("created = %v, want 2019", row.Created)
	}
}

func TestSync_CancelledContext(t *testing.T) {
	dir, store, db := syncEnv(t)
	writeFile(t, dir, "a.md", "# A")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Sync(ctx, db, store, Options{Workers: 1}, quietLogger()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
