// Package config loads server configuration from an optional YAML file with
// environment-variable overrides. Precedence: flags (handled by the caller)
// > environment > config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "snatcher"
)

// Config is the full server configuration.
type Config struct {
	// Env is the deployment environment ("development" or "production").
	// Production enables long-lived static cache headers.
	Env string `yaml:"env,omitempty"`

	// Host is the listen address (default 0.0.0.0).
	Host string `yaml:"host,omitempty"`

	// Port is the HTTP listen port (default 8000).
	Port int `yaml:"port,omitempty"`

	// MaxConcurrent bounds simultaneous extraction-engine invocations.
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`

	// SMTP holds the contact-form mail settings.
	SMTP SMTPConfig `yaml:"smtp,omitempty"`
}

// SMTPConfig holds the contact-form SMTP endpoint and credentials. With
// empty credentials the contact endpoint answers 503 and sends nothing.
type SMTPConfig struct {
	Server    string `yaml:"server,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	Username  string `yaml:"username,omitempty"`
	Password  string `yaml:"password,omitempty"`
	Recipient string `yaml:"recipient,omitempty"`
}

// Production reports whether the server runs with production hardening.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// ConfigDir returns the standard config directory, ~/.config/snatcher/.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Env:           "development",
		Host:          "0.0.0.0",
		Port:          8000,
		MaxConcurrent: 4,
		SMTP: SMTPConfig{
			Server:    "smtp.titan.email",
			Port:      465,
			Recipient: "info@videosnatcherz.tech",
		},
	}
}

// Load reads the config file, if any.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads the config file if it exists, otherwise returns
// defaults, then applies environment overrides either way.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = DefaultConfig()
	}
	applyEnv(cfg)
	return cfg
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Port = p
		}
	}
	if v := os.Getenv("MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrent = n
		}
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.SMTP.Server = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.SMTP.Port = p
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("RECIPIENT_EMAIL"); v != "" {
		cfg.SMTP.Recipient = v
	}
}

// Save writes the config file, creating the directory if needed.
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# snatcher configuration file\n\n"
	return os.WriteFile(path, []byte(header+string(data)), 0644)
}
