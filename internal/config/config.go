// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

// Package config loads emuctl settings. Precedence per field: explicit
// config file value, then environment, then detection (conventional install
// paths, PATH lookup), then the built-in default.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPollInterval   = 5 * time.Second
	DefaultCommandTimeout = 30 * time.Second
	// DefaultStatusTimeout bounds the per-signal queries of Android status
	// resolution, which are expected to fail often and must fail fast.
	DefaultStatusTimeout = 3 * time.Second
)

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config is the file-backed portion of the settings.
type Config struct {
	PollInterval   Duration `yaml:"poll_interval"`
	CommandTimeout Duration `yaml:"command_timeout"`
	StatusTimeout  Duration `yaml:"status_timeout"`

	SDKRoot  string `yaml:"sdk_root"`
	Emulator string `yaml:"emulator"`
	ADB      string `yaml:"adb"`
	Xcrun    string `yaml:"xcrun"`

	OTLPEndpoint string   `yaml:"otlp_endpoint"`
	SuppressLogs []string `yaml:"suppress_logs"`

	CorrelationID string `yaml:"-"`
}

// Load reads the YAML config at path, or the default location when path is
// empty. A missing file yields the defaults, not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		PollInterval:   Duration(DefaultPollInterval),
		CommandTimeout: Duration(DefaultCommandTimeout),
		StatusTimeout:  Duration(DefaultStatusTimeout),
	}
	if path == "" {
		path = defaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = Duration(DefaultPollInterval)
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = Duration(DefaultCommandTimeout)
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = Duration(DefaultStatusTimeout)
	}
	return cfg, nil
}

func defaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "emuctl", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "emuctl", "config.yaml")
}
