// Package config loads the tooluse CLI configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/internal/logging"
	"github.com/skosovsky/tooluse/modes"
)

// DefaultListFilesLimit caps list_files output when the file does not say otherwise.
const DefaultListFilesLimit = 200

// Config is the tooluse.yaml document.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	Workdir     string `yaml:"workdir"`
	MetricsAddr string `yaml:"metrics_addr"`

	// ListFilesLimit caps list_files results.
	ListFilesLimit int `yaml:"list_files_limit"`
	// AutoApprove names tools the console host approves without asking.
	AutoApprove []tooluse.ToolName `yaml:"auto_approve"`
	// PreventCompletionWithOpenTodos refuses attempt_completion while todos are open.
	PreventCompletionWithOpenTodos bool `yaml:"prevent_completion_with_open_todos"`
	// RequireTodos makes the todos parameter of new_task mandatory.
	RequireTodos bool `yaml:"require_todos"`
	// SingleToolPerTurn refuses every complete tool use after the first of a message.
	SingleToolPerTurn bool `yaml:"single_tool_per_turn"`
	// MaxConcurrency caps executions across tasks; 0 is unlimited.
	MaxConcurrency int `yaml:"max_concurrency"`

	// ModesFile is a YAML file with a top-level "modes" list replacing the built-in modes.
	ModesFile string `yaml:"modes_file"`
	// Modes are registered on top of the built-in (or ModesFile) modes.
	Modes []modes.Mode `yaml:"modes"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel:       "info",
		Workdir:        ".",
		ListFilesLimit: DefaultListFilesLimit,
	}
}

// Load reads the file at path on top of Default. A missing file yields Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.ListFilesLimit <= 0 {
		errs = append(errs, fmt.Errorf("list_files_limit must be positive, got %d", c.ListFilesLimit))
	}
	if c.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("max_concurrency must not be negative, got %d", c.MaxConcurrency))
	}
	for _, name := range c.AutoApprove {
		if !tooluse.IsToolName(string(name)) {
			errs = append(errs, fmt.Errorf("auto_approve: %w: %q", tooluse.ErrUnknownTool, name))
		}
	}
	for i, m := range c.Modes {
		if strings.TrimSpace(m.Slug) == "" {
			errs = append(errs, fmt.Errorf("modes[%d]: slug must not be empty", i))
		}
	}
	return errors.Join(errs...)
}

// ModeRegistry returns the built-in modes, or those of ModesFile, extended with Modes.
func (c Config) ModeRegistry() (*modes.Registry, error) {
	reg := modes.Default()
	if c.ModesFile != "" {
		var err error
		if reg, err = modes.LoadFile(c.ModesFile); err != nil {
			return nil, fmt.Errorf("modes_file: %w", err)
		}
	}
	for _, m := range c.Modes {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// AutoApproved reports whether name is in AutoApprove.
func (c Config) AutoApproved(name tooluse.ToolName) bool {
	for _, n := range c.AutoApprove {
		if n == name {
			return true
		}
	}
	return false
}
