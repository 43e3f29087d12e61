// Package config loads tracedb-server and ingestsvc configuration from a
// YAML file, merging it over a set of built-in defaults.
package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for both server binaries; each reads the
// sub-section it needs.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	HTTPAddr     string `yaml:"http_addr"`
	MaxZones     int    `yaml:"max_zones"`
	SnapshotDir  string `yaml:"snapshot_dir"`
}

type IngestConfig struct {
	GRPCAddr       string `yaml:"grpc_addr"`
	MaxBatchEvents int    `yaml:"max_batch_events"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration used when no file is supplied
// and as the base every loaded file is merged over.
func Default() Config {
	return Config{
		Server: ServerConfig{
			HTTPAddr:    ":8080",
			MaxZones:    256,
			SnapshotDir: "./snapshots",
		},
		Ingest: IngestConfig{
			GRPCAddr:       ":9090",
			MaxBatchEvents: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path as YAML and merges it over Default(); a zero value in the
// file (empty string, 0) leaves the default in place. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := mergo.Merge(&cfg, loaded, mergo.WithOverride); err != nil {
		return cfg, fmt.Errorf("config: merging %s: %w", path, err)
	}
	return cfg, nil
}
