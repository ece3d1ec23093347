// Package testutil provides shared test helpers for setting up vaults and date caches.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/timemachine/internal/index"
	"github.com/starford/timemachine/internal/storage"
)

// TestDB creates a temporary SQLite date cache that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "timemachine-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteNote writes a note whose created-iso property is date. An empty date
// produces a note without frontmatter.
func WriteNote(t *testing.T, store *storage.FS, path, title, date string) {
	t.Helper()
	var content string
	if date != "" {
		content = fmt.Sprintf("---\ncreated-iso: %s\n---\n", date)
	}
	if title != "" {
		content += "# " + title + "\n"
	}
	content += "body\n"
	WriteFile(t, store, path, content)
}

// WriteFile writes content to path inside the vault, creating parent
// directories as needed.
func WriteFile(t *testing.T, store *storage.FS, path, content string) {
	t.Helper()
	abs, err := store.Abs(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// QuietLogger discards everything below error level.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
