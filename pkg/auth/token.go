// Package auth stores the bearer token used to fetch models from a remote
// registry. The OS keychain is preferred, a file in the config directory is
// the fallback.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	tokenFileName  = "registry_token"
	keyringService = "vinecop"
	keyringUser    = "registry_token"
	fileMode       = 0600
)

// ErrNoToken is returned when neither the keychain nor the file hold a token.
var ErrNoToken = errors.New("no registry token found")

// SaveToken stores the token in the keychain, or in dir when the keychain
// is unavailable.
func SaveToken(dir, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}

	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveTokenFile(dir, token)
	}

	removeTokenFile(dir)
	return nil
}

// GetToken returns the stored token. A token found only in the file is
// migrated to the keychain when possible.
func GetToken(dir string) (string, error) {
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token, nil
	}

	token, err = getTokenFile(dir)
	if err != nil {
		return "", err
	}

	if migrateErr := keyring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Info("migrated token from file to OS keychain")
		removeTokenFile(dir)
	}

	return token, nil
}

// DeleteToken removes the token from both the keychain and the file.
func DeleteToken(dir string) error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("error deleting token from keychain", "error", err)
	}
	if err := os.Remove(tokenPath(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

func tokenPath(dir string) string {
	return filepath.Join(dir, tokenFileName)
}

func removeTokenFile(dir string) {
	if err := os.Remove(tokenPath(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("error removing token file", "path", tokenPath(dir), "error", err)
	}
}

func saveTokenFile(dir, token string) error {
	if dir == "" {
		return errors.New("token directory required")
	}
	if err := os.WriteFile(tokenPath(dir), []byte(token), fileMode); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

func getTokenFile(dir string) (string, error) {
	b, err := os.ReadFile(tokenPath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("reading token file %s: %w", tokenPath(dir), err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
