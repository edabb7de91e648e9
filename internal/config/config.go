// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages application configuration for intel-tui.
//
// Configuration is read from ~/.intel/config.toml (preferred) or
// ~/.intel/config.json, with environment variables overriding file
// values. Missing files fall back to defaults, so a fresh install works
// without any setup.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/intel-tui/internal/util"
)

// ===== STRUCTURE =====

// Config is the root configuration.
type Config struct {
	Backend BackendConfig `toml:"backend" json:"backend"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// BackendConfig controls how the client reaches the report backend.
type BackendConfig struct {
	// BaseURL is the backend root, e.g. "http://127.0.0.1:8000"
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSeconds bounds non-streaming requests
	TimeoutSeconds int `toml:"timeout_seconds" json:"timeout_seconds"`
	// ConnectTimeoutSeconds bounds connection establishment
	ConnectTimeoutSeconds int `toml:"connect_timeout_seconds" json:"connect_timeout_seconds"`
}

// UIConfig controls terminal presentation.
type UIConfig struct {
	// Theme selects the color scheme: "dark", "light", or "auto"
	Theme string `toml:"theme" json:"theme"`
	// DeepMode starts new sessions in deep report mode
	DeepMode bool `toml:"deep_mode" json:"deep_mode"`
	// ShowTimestamps renders a timestamp beside each turn
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:               "http://127.0.0.1:8000",
			TimeoutSeconds:        60,
			ConnectTimeoutSeconds: 10,
		},
		UI: UIConfig{
			Theme:          "auto",
			DeepMode:       false,
			ShowTimestamps: false,
		},
	}
}

// ===== PATHS =====

// ConfigDir returns the configuration directory (~/.intel).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".intel"), nil
}

// EnsureConfigDir creates the configuration directory if needed.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// TOMLPath returns the path to the TOML config file.
func TOMLPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// JSONPath returns the path to the legacy JSON config file.
func JSONPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ===== LOADING =====

// Load reads configuration with the precedence TOML, then JSON, then
// defaults, and applies environment overrides on top.
func Load() (*Config, error) {
	cfg, err := loadFromDisk()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromDisk() (*Config, error) {
	tomlPath, err := TOMLPath()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return loadTOML(tomlPath)
		}
	}

	jsonPath, err := JSONPath()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return loadJSON(jsonPath)
		}
	}

	return Default(), nil
}

func loadTOML(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func loadJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies INTEL_* environment variables on top of
// file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("INTEL_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("INTEL_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Backend.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("INTEL_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("INTEL_DEEP_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UI.DeepMode = b
		}
	}
}

// fillDefaults populates zero-valued fields.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = def.Backend.BaseURL
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = def.Backend.TimeoutSeconds
	}
	if c.Backend.ConnectTimeoutSeconds == 0 {
		c.Backend.ConnectTimeoutSeconds = def.Backend.ConnectTimeoutSeconds
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend.base_url %q is not a valid URL", c.Backend.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.base_url scheme must be http or https, got %q", parsed.Scheme)
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("backend.timeout_seconds must be positive, got %d", c.Backend.TimeoutSeconds)
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("ui.theme must be dark, light, or auto, got %q", c.UI.Theme)
	}
	return nil
}

// ===== SAVING =====

// SaveTOML writes the configuration to the TOML config file with
// restrictive permissions.
func (c *Config) SaveTOML() error {
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := TOMLPath()
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("# intel-tui configuration\n")
	sb.WriteString("# Edit by hand or via the application; restart is not required.\n\n")
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}

// SaveJSON writes the configuration to the legacy JSON config file.
func (c *Config) SaveJSON() error {
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := JSONPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, data, 0600)
}

// ===== GLOBAL ACCESS =====

var (
	globalConfig *Config
	globalMu     sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first
// use. Load errors fall back to defaults so the TUI can always start.
func Global() *Config {
	globalMu.RLock()
	cfg := globalConfig
	globalMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	loaded, err := Load()
	if err != nil {
		loaded = Default()
	}

	globalMu.Lock()
	if globalConfig == nil {
		globalConfig = loaded
	}
	cfg = globalConfig
	globalMu.Unlock()
	return cfg
}

// ReloadGlobal re-reads configuration from disk and swaps the global.
func ReloadGlobal() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()
	return cfg, nil
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()
}

// ResetGlobalForTesting clears the global so tests can reload.
func ResetGlobalForTesting() {
	globalMu.Lock()
	globalConfig = nil
	globalMu.Unlock()
}
