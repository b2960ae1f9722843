// Package config loads and persists the assistant's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rotinabot/rotina/internal/gateway"
	"github.com/rotinabot/rotina/internal/logging"
	"github.com/rotinabot/rotina/internal/whatsapp"
)

// Config represents the main configuration
type Config struct {
	Version  string           `yaml:"version"`
	Gateway  *gateway.Config  `yaml:"gateway"`
	WhatsApp *whatsapp.Config `yaml:"whatsapp"`
	Storage  *StorageConfig   `yaml:"storage"`
	Digest   *DigestConfig    `yaml:"digest"`
	Logging  *logging.Config  `yaml:"logging"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	Path string `yaml:"path"`
}

// DigestConfig holds the morning digest schedule
type DigestConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	Timezone string `yaml:"timezone"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Version: "1.0",
		Gateway: &gateway.Config{
			Host: "127.0.0.1",
			Port: 8080,
		},
		WhatsApp: whatsapp.DefaultConfig(),
		Storage: &StorageConfig{
			Path: filepath.Join(homeDir, ".rotina", "data"),
		},
		Digest: &DigestConfig{
			Enabled:  false,
			Schedule: "0 9 * * *",
			Timezone: "America/Sao_Paulo",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Return defaults if no config file
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Storage != nil {
		config.Storage.Path = expandPath(config.Storage.Path)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration path
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".rotina", "config.yaml")
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Gateway == nil {
		return fmt.Errorf("gateway configuration is required")
	}
	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway port: %d", c.Gateway.Port)
	}
	if c.WhatsApp == nil {
		return fmt.Errorf("whatsapp configuration is required")
	}
	if !c.WhatsApp.Simulate {
		if c.WhatsApp.APIToken == "" {
			return fmt.Errorf("whatsapp api_token is required unless simulate is enabled")
		}
		if c.WhatsApp.PhoneNumberID == "" {
			return fmt.Errorf("whatsapp phone_number_id is required unless simulate is enabled")
		}
	}
	if c.Storage == nil || c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}
	if c.Digest == nil {
		return fmt.Errorf("digest configuration is required")
	}
	if c.Digest.Enabled && c.Digest.Schedule == "" {
		return fmt.Errorf("digest schedule is required when digest is enabled")
	}
	return nil
}
