// Package config loads and saves user settings for vault-panes.
//
// Settings live in a JSON file at ~/.vault-panes/config.json. The file is
// optional for library use — every field has a working default — but host
// applications that want a persistent vault location and key overrides load
// it at startup.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDirName  = ".vault-panes"
	configFileName = "config.json"
)

// ErrNotConfigured is returned by Load when no config file exists yet.
var ErrNotConfigured = errors.New("vault-panes is not configured")

// Config stores user-defined vault-panes settings.
type Config struct {
	// VaultDir is the document collection the pane layout is scoped to.
	VaultDir string `json:"vault_dir"`

	// SaveDebounceMs is the quiet period, in milliseconds, before a layout
	// mutation is written to disk. Zero means the built-in default.
	SaveDebounceMs int `json:"save_debounce_ms,omitempty"`

	// WatchIntervalMs is the vault poll cadence, in milliseconds. Zero means
	// the built-in default.
	WatchIntervalMs int `json:"watch_interval_ms,omitempty"`

	// DefaultSplitRatio is the divider position given to new splits. Zero
	// means an even 0.5; values outside (0,1) are rejected on load/save.
	DefaultSplitRatio float64 `json:"default_split_ratio,omitempty"`

	// Keybindings maps action names to key strings, overriding the built-in
	// defaults one action at a time.
	Keybindings map[string]string `json:"keybindings,omitempty"`
}

// SaveDebounce returns the configured debounce window as a duration, or zero
// when unset so callers fall back to their own default.
func (c Config) SaveDebounce() time.Duration {
	return time.Duration(c.SaveDebounceMs) * time.Millisecond
}

// WatchInterval returns the configured poll cadence as a duration, or zero
// when unset so callers fall back to their own default.
func (c Config) WatchInterval() time.Duration {
	return time.Duration(c.WatchIntervalMs) * time.Millisecond
}

// DefaultVaultDir returns the default vault directory used by the
// configurator.
func DefaultVaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "vault"), nil
}

// ConfigPath returns the configuration file path.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// Exists reports whether the config file exists.
func Exists() (bool, error) {
	path, err := ConfigPath()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load reads and validates the saved configuration.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, ErrNotConfigured
		}
		return Config{}, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes configuration to disk.
func Save(cfg Config) error {
	if err := normalize(&cfg); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return os.WriteFile(path, data, 0o600)
}

func normalize(cfg *Config) error {
	vaultDir, err := NormalizeVaultDir(cfg.VaultDir)
	if err != nil {
		return fmt.Errorf("invalid vault_dir: %w", err)
	}
	cfg.VaultDir = vaultDir

	if cfg.SaveDebounceMs < 0 {
		return fmt.Errorf("invalid save_debounce_ms: %d", cfg.SaveDebounceMs)
	}
	if cfg.WatchIntervalMs < 0 {
		return fmt.Errorf("invalid watch_interval_ms: %d", cfg.WatchIntervalMs)
	}
	if r := cfg.DefaultSplitRatio; r != 0 && (r <= 0 || r >= 1) {
		return fmt.Errorf("invalid default_split_ratio: %v must be in (0,1)", r)
	}
	return nil
}

// NormalizeVaultDir expands and normalizes a vault directory path.
func NormalizeVaultDir(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is required")
	}

	expanded, err := expandHome(trimmed)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}

	return filepath.Clean(abs), nil
}

func expandHome(path string) (string, error) {
	if path == "~" {
		return os.UserHomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
