package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/timemachine/internal/storage"
	tu "github.com/starford/timemachine/internal/testutil"
	"github.com/starford/timemachine/internal/timemachine"
)

func testConfig(t *testing.T) (*Config, *storage.FS) {
	t.Helper()
	vaultDir, store := tu.TestVault(t)
	cfg := NewDefaultConfig()
	cfg.Vault.Path = vaultDir
	cfg.Vault.IgnoreDirs = []string{"templates"}
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "tm.db")
	cfg.TimeMachine.Horizons = []string{"week", "year"}
	cfg.TimeMachine.Capacity = 2

	tu.WriteNote(t, store, "a.md", "Alpha", "2024-03-01")
	tu.WriteNote(t, store, "b.md", "Beta", "2023-01-15")
	tu.WriteNote(t, store, "templates/t.md", "Template", "2024-03-02")
	return cfg, store
}

var refDate = time.Date(2024, 3, 31, 0, 0, 0, 0, time.Local)

func TestShow_LogsCacheCounts(t *testing.T) {
	cfg, store := testConfig(t)
	tu.WriteNote(t, store, "plain.md", "Plain", "")
	var logs bytes.Buffer
	err := Show(context.Background(),
		WithConfig(cfg),
		WithOutput(io.Discard),
		WithLogOutput(&logs),
		WithReferenceDate(refDate))
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	var line string
	for _, l := range strings.Split(logs.String(), "\n") {
		if strings.Contains(l, "initial sync finished") {
			line = l
		}
	}
	if !strings.Contains(line, `"notes":3`) || !strings.Contains(line, `"dated":2`) {
		t.Errorf("sync log = %q, want notes=3 dated=2", line)
	}
}

func TestShow_Text(t *testing.T) {
	for _, noCache := range []bool{false, true} {
		cfg, _ := testConfig(t)
		var out bytes.Buffer
		err := Show(context.Background(),
			WithConfig(cfg),
			WithOutput(&out),
			WithLogOutput(io.Discard),
			WithReferenceDate(refDate),
			WithoutCache(noCache))
		if err != nil {
			t.Fatalf("noCache=%v: Show: %v", noCache, err)
		}
		text := out.String()
		for _, want := range []string{"A Week Ago - 3/24/2024", "Alpha: 3/1/2024", "A Year Ago - 3/31/2023", "Beta: 1/15/2023"} {
			if !strings.Contains(text, want) {
				t.Errorf("noCache=%v: output missing %q:\n%s", noCache, want, text)
			}
		}
		if strings.Contains(text, "Template") {
			t.Errorf("noCache=%v: ignored note listed:\n%s", noCache, text)
		}
	}
}

func TestShow_JSON(t *testing.T) {
	cfg, _ := testConfig(t)
	var out bytes.Buffer
	err := Show(context.Background(),
		WithConfig(cfg),
		WithOutput(&out),
		WithLogOutput(io.Discard),
		WithReferenceDate(refDate),
		WithJSON(true))
	if err != nil {
		t.Fatal(err)
	}
	var rep timemachine.Report
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rep.Sections) != 2 || len(rep.Sections[0].Notes) != 2 || len(rep.Sections[1].Notes) != 1 {
		t.Errorf("report = %+v", rep)
	}
}

func TestShow_RequiresConfig(t *testing.T) {
	if err := Show(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestShow_UnknownHorizon(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.TimeMachine.Horizons = []string{"decade"}
	err := Show(context.Background(), WithConfig(cfg), WithOutput(io.Discard), WithLogOutput(io.Discard))
	if err == nil {
		t.Fatal("expected error for unknown horizon")
	}
}
