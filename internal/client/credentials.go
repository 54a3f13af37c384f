package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoCredentials is returned when no credentials file exists.
var ErrNoCredentials = errors.New("client: not signed in")

// Credentials is the session stored between CLI invocations.
type Credentials struct {
	Server    string    `yaml:"server"`
	Customer  string    `yaml:"customer,omitempty"`
	Username  string    `yaml:"username"`
	Token     string    `yaml:"token"`
	ExpiresAt time.Time `yaml:"expires_at"`
}

// Expired reports whether the stored token is past its expiry at now.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// DefaultCredentialsPath is the per-user credentials location.
func DefaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "modular", "credentials.yaml")
}

// LoadCredentials reads credentials from path.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("client: read credentials: %w", err)
	}
	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("client: parse credentials: %w", err)
	}
	if creds.Token == "" {
		return Credentials{}, ErrNoCredentials
	}
	return creds, nil
}

// SaveCredentials writes credentials to path, readable only by the owner.
func SaveCredentials(path string, creds Credentials) error {
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("client: encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("client: create credentials dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("client: write credentials: %w", err)
	}
	return nil
}

// RemoveCredentials deletes the credentials file if present.
func RemoveCredentials(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("client: remove credentials: %w", err)
	}
	return nil
}
