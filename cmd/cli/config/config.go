package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL = "http://localhost:8080"
	tokenFileName = ".mlreg_token"
)

// ErrNotLoggedIn is returned when no token has been stored.
var ErrNotLoggedIn = errors.New("not logged in: run `mlreg login` first")

// APIURL returns the base URL for the registry API.
// It can be overridden with the MLREG_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("MLREG_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// TokenPath is ~/.mlreg_token unless MLREG_TOKEN_FILE is set.
func TokenPath() string {
	if v := os.Getenv("MLREG_TOKEN_FILE"); v != "" {
		return v
	}
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, tokenFileName)
}

func SaveToken(token string) error {
	return os.WriteFile(TokenPath(), []byte(token), 0600)
}

func LoadToken() (string, error) {
	data, err := os.ReadFile(TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// RemoveToken deletes the stored token. It reports false when there was none.
func RemoveToken() (bool, error) {
	err := os.Remove(TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
