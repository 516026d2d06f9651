package theaterconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := DefaultConfig()
	if cfg.Scheduler != def.Scheduler {
		t.Fatalf("expected default scheduler config, got %+v", cfg.Scheduler)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected default log config: %+v", cfg.Log)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theater.yaml")
	contents := []byte("log:\n  level: debug\n  format: text\napi:\n  enabled: true\n  port: 9999\n")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Fatalf("expected file values to override defaults, got %+v", cfg.Log)
	}
	if !cfg.API.Enabled || cfg.API.Port != 9999 {
		t.Fatalf("expected file values for api config, got %+v", cfg.API)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/no/such/theater.yaml", nil); err == nil {
		t.Fatal("expected an error loading a missing config file")
	}
}

func TestOverridesTakePriorityOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theater.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path, map[string]any{"log.level": "error"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("expected override to win, got %q", cfg.Log.Level)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "not-a-level"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation to reject an unknown log level")
	}
}

func TestSchedulerConfigBudgetConversion(t *testing.T) {
	cfg := DefaultConfig()
	b := cfg.Scheduler.Budget()
	if b.Immediate != cfg.Scheduler.ImmediateBudget || b.Fast != cfg.Scheduler.FastBudget || b.Normal != cfg.Scheduler.NormalBudget {
		t.Fatalf("expected Budget() to carry the scheduler fields through unchanged, got %+v", b)
	}
}
