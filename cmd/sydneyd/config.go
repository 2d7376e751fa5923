package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server's static configuration file, grounded on
// tinySQL's cmd/server/main.go flag surface (DSN, listen addresses)
// generalized into a YAML document the way tinySQL's StorageConfig is
// populated from flags/DSN in internal/storage/db.go, per SPEC_FULL's
// AMBIENT STACK section.
type Config struct {
	GRPCAddr string `yaml:"grpc_addr"`

	MergeWorkers    int           `yaml:"merge_workers"`
	MergeNudgeCron  string        `yaml:"merge_nudge_cron"`
	MergeMaxRuntime time.Duration `yaml:"merge_max_runtime"`

	LockTimeout time.Duration `yaml:"lock_timeout"`

	Version string `yaml:"version"`
}

// DefaultConfig matches tinySQL's flag defaults (":9090" for gRPC) where
// this module has an analogous concern.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:        ":9090",
		MergeWorkers:    2,
		MergeNudgeCron:  "@every 30s",
		MergeMaxRuntime: 5 * time.Minute,
		LockTimeout:     30 * time.Second,
		Version:         "sydney-dev",
	}
}

// LoadConfig reads a YAML config file, falling back to DefaultConfig
// values for anything the file omits.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
