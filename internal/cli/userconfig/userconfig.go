// Package userconfig persists per-user CLI state under
// ~/.config/tickd/config.json: which configured server commands talk to by
// default, and when the last update check ran. Project-level configuration
// (the server list itself) lives in tickd.json in the working directory.
package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	configDirName  = "tickd"
	configFileName = "config.json"
)

// UserConfig is the durable per-user state.
type UserConfig struct {
	SelectedServer  string    `json:"selected_server,omitempty"`
	LastUpdateCheck time.Time `json:"last_update_check,omitempty"`
}

// Path returns the location of the user config file.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName, configFileName), nil
}

// Load reads the user config. A missing file is an empty config, not an
// error: the first run starts from nothing.
func Load() (*UserConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}
	return &cfg, nil
}

// Save writes the user config, creating the config directory on first use.
func Save(cfg *UserConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}

// update applies mutate under a load-modify-save cycle.
func update(mutate func(*UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	mutate(cfg)
	return Save(cfg)
}

// SetSelectedServer records alias as the default server. An empty alias
// clears the selection.
func SetSelectedServer(alias string) error {
	return update(func(cfg *UserConfig) { cfg.SelectedServer = alias })
}

// GetSelectedServer returns the default server alias, empty when none is
// selected.
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.SelectedServer, nil
}

// TouchUpdateCheck records that an update check ran now.
func TouchUpdateCheck() error {
	return update(func(cfg *UserConfig) { cfg.LastUpdateCheck = time.Now() })
}

// UpdateCheckDue reports whether the last update check is older than the
// given interval. Errors reading the config count as due.
func UpdateCheckDue(interval time.Duration) bool {
	cfg, err := Load()
	if err != nil {
		return true
	}
	return time.Since(cfg.LastUpdateCheck) >= interval
}
