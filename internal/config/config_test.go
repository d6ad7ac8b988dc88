package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_ReadsEnv(t *testing.T) {
	t.Setenv("CP_ADDR", "127.0.0.1:9999")
	t.Setenv("CP_STORE", StoreSQLite)
	t.Setenv("CP_ROOT", "/courses/go")

	cfg := Default()
	if cfg.Addr != "127.0.0.1:9999" || cfg.Store != StoreSQLite || cfg.Root != "/courses/go" {
		t.Fatalf("config: got %+v", cfg)
	}
}

func TestResolve_DerivesPathsFromRoot(t *testing.T) {
	root := t.TempDir()
	cfg, err := Config{Root: root}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Store != StoreJSON {
		t.Fatalf("store: want %q, got %q", StoreJSON, cfg.Store)
	}
	if want := filepath.Join(root, "progress.json"); cfg.ProgressFile != want {
		t.Fatalf("progress file: want %q, got %q", want, cfg.ProgressFile)
	}
	if want := filepath.Base(root); cfg.CourseName != want {
		t.Fatalf("course name: want %q, got %q", want, cfg.CourseName)
	}
	if want := filepath.Join(root, ".course-cache"); cfg.CacheDir != want {
		t.Fatalf("cache dir: want %q, got %q", want, cfg.CacheDir)
	}
}

func TestResolve_RejectsUnknownStore(t *testing.T) {
	if _, err := (Config{Root: t.TempDir(), Store: "redis"}).Resolve(); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestLoadFile_OverridesOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.yaml")
	if err := os.WriteFile(path, []byte("addr: 0.0.0.0:8001\nstore: sqlite\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadFile(Config{Addr: "127.0.0.1:8000", Root: "/c", Store: StoreJSON}, path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Addr != "0.0.0.0:8001" || cfg.Store != StoreSQLite || cfg.Root != "/c" {
		t.Fatalf("config: got %+v", cfg)
	}

	if err := os.WriteFile(path, []byte("addr: [oops"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadFile(Config{}, path); err == nil {
		t.Fatalf("expected parse error")
	}
}
