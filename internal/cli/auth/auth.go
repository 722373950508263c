package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"

	"github.com/tickd-dev/tickd/internal/session"
)

const (
	service         = "tickd-cli"
	sessionFileName = "session.json"
)

// keyringKey returns a unique key for storing tokens per server
func keyringKey(server string) string {
	return fmt.Sprintf("session-%s", server)
}

// SaveToken persists the access token securely in the OS keychain/credential manager
func SaveToken(server, token string) error {
	if err := keyring.Set(service, keyringKey(server), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the access token from the OS keychain/credential
// manager. A missing token is not an error: it means "not logged in" and
// yields an empty string.
func LoadToken(server string) (string, error) {
	token, err := keyring.Get(service, keyringKey(server))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the access token from the OS keychain/credential manager
func DeleteToken(server string) error {
	if err := keyring.Delete(service, keyringKey(server)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// sessionFilePath returns the path of the per-server user record.
func sessionFilePath(server string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "tickd", fmt.Sprintf("%s-%s", server, sessionFileName)), nil
}

type sessionFile struct {
	User *session.User `json:"user,omitempty"`
}

func saveUser(server string, user *session.User) error {
	path, err := sessionFilePath(server)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(sessionFile{User: user}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func loadUser(server string) (*session.User, error) {
	path, err := sessionFilePath(server)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return f.User, nil
}

func deleteUser(server string) error {
	path, err := sessionFilePath(server)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
