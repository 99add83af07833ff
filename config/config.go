package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/parcelops/dispatchd/core/batch"
	"github.com/parcelops/dispatchd/core/metrics"
	"github.com/parcelops/dispatchd/infra/mqtt"
)

type Config struct {
	Scoring  ScoringConfig  `json:"scoring"`
	Batch    batch.Config   `json:"batch"`
	Metrics  metrics.Config `json:"metrics"`
	MQTT     MQTTConfig     `json:"mqtt"`
	HTTP     HTTPConfig     `json:"http"`
	Orders   OrdersConfig   `json:"orders"`
	Snapshot SnapshotConfig `json:"snapshot"`
}

// MQTTConfig wraps the publisher settings with an enable switch; most
// deployments run without a broker.
type MQTTConfig struct {
	Enabled bool `json:"enabled"`
	mqtt.Config
}

// HTTPConfig defines the dashboard API listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// OrdersConfig optionally preloads the queue from a CSV export at startup.
type OrdersConfig struct {
	File string `json:"file"`
}

// SnapshotConfig controls periodic pack-state persistence. The tracker only
// exports; the service decides when, per this interval.
type SnapshotConfig struct {
	Path            string `json:"path"`
	IntervalSeconds int    `json:"interval_seconds"`
}

func (c *SnapshotConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "pack_snapshot.json"
	}
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 60
	}
}

func (c SnapshotConfig) Validate() error {
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("snapshot interval must not be negative")
	}
	return nil
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("DISPATCHD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "dispatchd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Scoring.SetDefaults()
	cfg.Batch.SetDefaults()
	cfg.HTTP.SetDefaults()
	cfg.Snapshot.SetDefaults()
	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Batch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Snapshot.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
