// Package config loads the peripheral's YAML configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Krajiyah/ble-chat/pkg/util"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	BackendGoBLE  = "goble"
	BackendTinyGo = "tinygo"
)

// Config holds all peripheral configuration.
type Config struct {
	DeviceName        string `yaml:"device_name"`
	Label             string `yaml:"label"`
	Backend           string `yaml:"backend"`    // "goble" or "tinygo"
	HCIDevice         int    `yaml:"hci_device"` // -1 = first available
	ResumeAdvertising bool   `yaml:"resume_advertising"`
	LogLevel          string `yaml:"log_level"`
	LogFile           string `yaml:"log_file"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ble-chat")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with the stock identity and the go-ble backend.
func Default() *Config {
	return &Config{
		DeviceName: util.DefaultDeviceName,
		Label:      util.DefaultIncomingLabel,
		Backend:    BackendGoBLE,
		HCIDevice:  -1,
		LogLevel:   "info",
	}
}

// Load reads and parses a YAML config file over the defaults. Tilde (~) in
// log_file is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	cfg.LogFile = expandTilde(cfg.LogFile)

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && os.IsNotExist(errors.Cause(err)) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.DeviceName == "" {
		return errors.New("device_name must not be empty")
	}

	switch c.Backend {
	case BackendGoBLE, BackendTinyGo:
	default:
		return errors.Errorf("backend must be %q or %q, got %q", BackendGoBLE, BackendTinyGo, c.Backend)
	}

	if c.HCIDevice < -1 {
		return errors.Errorf("hci_device must be >= -1, got %d", c.HCIDevice)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
