package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/topflight-lang/topflight"
)

// CLIConfig holds configuration loaded from ~/.topflight/config.yaml
type CLIConfig struct {
	TermBackground  string `yaml:"term_background"` // "light", "dark", or "auto" (auto defaults to dark)
	ContinueOnError bool   `yaml:"continue_on_error"`
	MaxCallDepth    int    `yaml:"max_call_depth"`
	HistoryFile     string `yaml:"history_file"`
}

func defaultCLIConfig() CLIConfig {
	return CLIConfig{
		TermBackground: "auto",
		MaxCallDepth:   topflight.DefaultMaxCallDepth,
		HistoryFile:    topflight.DefaultHistoryFile(),
	}
}

const defaultConfigText = `# TopFlight CLI configuration
# This file is created automatically on first run.

# Terminal background for REPL colors: "auto", "dark" or "light"
term_background: auto

# Keep running a script after a failing line
continue_on_error: false

# Maximum nesting of CALL / CALL_IF
max_call_depth: 10000

# REPL history; leave empty for the default ~/.topflight/history
history_file: ""
`

// getConfigFilePath returns the path to ~/.topflight/config.yaml
func getConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".topflight", "config.yaml")
}

// loadCLIConfig reads path over the defaults. A missing file at the default
// location is created; a missing explicit file is an error.
func loadCLIConfig(path string, explicit bool) (CLIConfig, error) {
	cfg := defaultCLIConfig()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		createDefaultConfig(path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer file.Close()

	if err := decodeCLIConfig(file, &cfg); err != nil {
		return defaultCLIConfig(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func decodeCLIConfig(r io.Reader, cfg *CLIConfig) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	cfg.TermBackground = strings.ToLower(strings.TrimSpace(cfg.TermBackground))
	switch cfg.TermBackground {
	case "":
		cfg.TermBackground = "auto"
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("term_background must be auto, dark or light, not %q", cfg.TermBackground)
	}
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = topflight.DefaultMaxCallDepth
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = topflight.DefaultHistoryFile()
	}
	return nil
}

// createDefaultConfig writes the default config file, ignoring failures.
func createDefaultConfig(path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(path, []byte(defaultConfigText), 0o644)
}

func (c CLIConfig) lightBackground() bool {
	return c.TermBackground == "light"
}
