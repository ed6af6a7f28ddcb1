package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigDir returns the default CLI config directory (~/.certvault).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".certvault"), nil
}

// DefaultConfigPath returns the default CLI config file path (~/.certvault/config.yml).
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// ClientConfig is the CLI profile: where the server lives and the current session.
type ClientConfig struct {
	ServerURL    string `yaml:"server_url,omitempty"`
	Email        string `yaml:"email,omitempty"`
	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
}

// Validate checks that the profile can reach a server.
func (c *ClientConfig) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server_url is required")
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server_url must start with http:// or https://: %q", c.ServerURL)
	}
	return nil
}

// IsLoggedIn returns true if the profile holds a session.
func (c *ClientConfig) IsLoggedIn() bool {
	return c.AccessToken != ""
}

// ClearSession forgets the stored tokens.
func (c *ClientConfig) ClearSession() {
	c.AccessToken = ""
	c.RefreshToken = ""
}

// Load reads the profile from the given path.
// If the file does not exist, an empty profile is returned.
func Load(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ClientConfig{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads the profile from the default path.
func LoadDefault() (*ClientConfig, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the profile to the given path, creating directories as needed.
// The file holds tokens, so it is only readable by the owner.
func (c *ClientConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// SaveDefault saves the profile to the default path.
func (c *ClientConfig) SaveDefault() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.Save(path)
}
