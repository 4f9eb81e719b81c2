package main

import (
	"github.com/BurntSushi/toml"
)

// sessionConfig is the small TOML config file cmd/qdbg accepts for session
// defaults (SPEC_FULL.md §3.3): initial breakpoints by source offset, an
// equality-assertion tolerance, and the log level. Tolerance is decoded
// but not applied: equality assertions use the tolerance in their own body
// or the assertion package default. No command-line flag overrides these
// fields.
type sessionConfig struct {
	Breakpoints []int   `toml:"breakpoints"`
	Tolerance   float64 `toml:"tolerance"`
	LogLevel    string  `toml:"log_level"`
}

func defaultConfig() sessionConfig {
	return sessionConfig{Tolerance: 1e-6, LogLevel: "warn"}
}

func loadConfig(path string) (sessionConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
