package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/known-board/pkg/models"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadConfig_Defaults_WhenNoFile(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())

	cfg, err := cm.LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != models.BackendFile {
		t.Errorf("Backend = %q, want file", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != "board.json" {
		t.Errorf("Path = %q, want board.json", cfg.Storage.Path)
	}
	if cfg.Storage.Key != "known-board-data" {
		t.Errorf("Key = %q", cfg.Storage.Key)
	}
	if !cfg.Compression.EnableValuePool || cfg.Compression.PoolMinRepeats != 2 || cfg.Compression.PoolMinStringLen != 6 {
		t.Errorf("Compression = %+v", cfg.Compression)
	}
	if cfg.DefaultView != models.ViewPending {
		t.Errorf("DefaultView = %q", cfg.DefaultView)
	}
	if err := cm.ValidateConfig(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfig_ReadsKbconfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".kbconfig.yaml", `
storage:
  backend: sqlite
  key: my-board
compression:
  enable_value_pool: false
  pool_min_repeats: 3
export:
  prefix: backup
events:
  enabled: false
defaults:
  view: all
`)

	cfg, err := NewConfigurationManager(dir).LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != models.BackendSQLite {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != "board.db" {
		t.Errorf("Path = %q, want sqlite default board.db", cfg.Storage.Path)
	}
	if cfg.Storage.Key != "my-board" {
		t.Errorf("Key = %q", cfg.Storage.Key)
	}
	if cfg.Compression.EnableValuePool || cfg.Compression.PoolMinRepeats != 3 || cfg.Compression.PoolMinStringLen != 6 {
		t.Errorf("Compression = %+v", cfg.Compression)
	}
	if cfg.Export.Prefix != "backup" || cfg.Export.Dir != "." {
		t.Errorf("Export = %+v", cfg.Export)
	}
	if cfg.Events.Enabled {
		t.Error("Events.Enabled should be false")
	}
	if cfg.DefaultView != models.ViewAll {
		t.Errorf("DefaultView = %q", cfg.DefaultView)
	}
}

func TestLoadConfig_ExplicitPathWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".kbconfig.yaml", "storage:\n  backend: sqlite\n  path: data/mine.sqlite\n")
	cfg, err := NewConfigurationManager(dir).LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Path != "data/mine.sqlite" {
		t.Errorf("Path = %q", cfg.Storage.Path)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".kbconfig.yaml", "storage: [unclosed\n")
	if _, err := NewConfigurationManager(dir).LoadConfig(); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestValidateConfig_ReportsAllProblems(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := DefaultConfig()
	cfg.Storage.Backend = "postgres"
	cfg.Storage.Key = ""
	cfg.Compression.PoolMinRepeats = 1
	cfg.Export.Prefix = "a/b"
	cfg.DefaultView = "archived"

	err := cm.ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"storage.backend", "storage.key", "pool_min_repeats", "export.prefix", "defaults.view"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
	if cm.ValidateConfig(nil) == nil {
		t.Error("nil config must fail")
	}
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigurationManager(dir)
	if got := cm.ResolvePath("board.json"); got != filepath.Join(dir, "board.json") {
		t.Errorf("relative = %q", got)
	}
	abs := filepath.Join(dir, "x", "y.db")
	if got := cm.ResolvePath(abs); got != abs {
		t.Errorf("absolute = %q", got)
	}
}
