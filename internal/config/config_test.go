package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend() != "sqlite" || cfg.LogLevel() != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Input.Key != "C" || cfg.Input.Mode != "major" || cfg.Input.Instrument != "piano" {
		t.Fatalf("unexpected input defaults: %+v", cfg.Input)
	}
	if !cfg.Detection.Patch().Empty() {
		t.Fatal("expected no detection overrides")
	}
}

func TestLoadFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := []byte(`
[storage]
backend = "Bolt"

[logging]
level = "debug"

[detection]
silence_threshold_ms = 1500
min_pattern_length = 4
auto_save_interesting_patterns = true

[input]
key = "G"
instrument = "flute"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend() != "bolt" || cfg.LogLevel() != "debug" {
		t.Fatalf("unexpected storage/logging: %+v", cfg)
	}
	if cfg.Input.Key != "G" || cfg.Input.Mode != "major" || cfg.Input.Instrument != "flute" {
		t.Fatalf("unexpected input: %+v", cfg.Input)
	}

	p := cfg.Detection.Patch()
	if p.SilenceThreshold == nil || *p.SilenceThreshold != 1500*time.Millisecond {
		t.Fatalf("unexpected silence threshold %v", p.SilenceThreshold)
	}
	if p.MinPatternLength == nil || *p.MinPatternLength != 4 {
		t.Fatal("expected min pattern length override")
	}
	if p.AutoSaveInterestingPatterns == nil || !*p.AutoSaveInterestingPatterns {
		t.Fatal("expected auto-save override")
	}
	if p.AutoPurgeAge != nil || p.MaxHistorySize != nil {
		t.Fatal("expected fields absent from the file to stay unset")
	}
}

func TestLoadRejectsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[storage\nbackend="), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDBPathPrecedence(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)
	t.Setenv(EnvDBPath, "")

	cfg := Default()
	path, err := cfg.DBPath("")
	if err != nil {
		t.Fatalf("DBPath: %v", err)
	}
	if want := filepath.Join(home, ".pattern-memory", "patterns.db"); path != want {
		t.Fatalf("unexpected default path: got=%q want=%q", path, want)
	}

	cfg.Storage.Path = "~/music/patterns.db"
	if path, _ = cfg.DBPath(""); path != filepath.Join(home, "music", "patterns.db") {
		t.Fatalf("expected file path with ~ expanded, got %q", path)
	}

	t.Setenv(EnvDBPath, "/tmp/env.db")
	if path, _ = cfg.DBPath(""); path != "/tmp/env.db" {
		t.Fatalf("expected env path, got %q", path)
	}
	if path, _ = cfg.DBPath("/tmp/flag.db"); path != "/tmp/flag.db" {
		t.Fatalf("expected flag path, got %q", path)
	}
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/pattern-memory.toml")
	path, err := Path()
	if err != nil || path != "/etc/pattern-memory.toml" {
		t.Fatalf("unexpected path %q err=%v", path, err)
	}
}
