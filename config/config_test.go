package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
scoring:
  dispatch_weight: 0.5
  delivery_weight: 0.3
  age_weight: 0.1
  value_weight: 0.1
batch:
  max_batch_size: 6
http:
  addr: ":9090"
metrics:
  sinks:
    - type: nop
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoring.DispatchWeight != 0.5 {
		t.Fatalf("dispatch weight = %v", cfg.Scoring.DispatchWeight)
	}
	if cfg.Batch.MaxBatchSize != 6 {
		t.Fatalf("max batch size = %d", cfg.Batch.MaxBatchSize)
	}
	// Unset batch fields fall back to defaults.
	if cfg.Batch.BasePickingMinutes != 3.5 {
		t.Fatalf("base picking minutes = %v", cfg.Batch.BasePickingMinutes)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("http addr = %q", cfg.HTTP.Addr)
	}
	if len(cfg.Metrics.Sinks) != 1 || cfg.Metrics.Sinks[0].Type != "nop" {
		t.Fatalf("sinks = %#v", cfg.Metrics.Sinks)
	}
	if cfg.Snapshot.Path == "" || cfg.Snapshot.IntervalSeconds != 60 {
		t.Fatalf("snapshot defaults missing: %+v", cfg.Snapshot)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "{}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoring.DispatchWeight != 0.60 {
		t.Fatalf("default dispatch weight = %v", cfg.Scoring.DispatchWeight)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("default addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Batch.MaxBatchSize != 8 {
		t.Fatalf("default max batch size = %d", cfg.Batch.MaxBatchSize)
	}
}

func TestLoad_InvalidWeights(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
scoring:
  dispatch_weight: 0.9
  delivery_weight: 0.9
  age_weight: 0.1
  value_weight: 0.1
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected weight validation error")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", "http:\n  addr: \":7000\"\n")
	t.Setenv("DISPATCHD_HTTP__ADDR", ":7100")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":7100" {
		t.Fatalf("env override not applied: %q", cfg.HTTP.Addr)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "x = 1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
