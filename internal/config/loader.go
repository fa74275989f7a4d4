package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".deletia"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file format. Every field is optional;
// CLI flags override file values.
type File struct {
	// PacingProfile sets the default pacing profile.
	PacingProfile string `yaml:"pacing_profile,omitempty"`

	// DataDir sets the default store directory.
	DataDir string `yaml:"data_dir,omitempty"`

	// BearerToken is a platform API token for existence probes.
	// Kept in the config file so it stays out of shell history.
	BearerToken string `yaml:"bearer_token,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`

	// MaxBodySize caps the archived bytes read per capture.
	MaxBodySize int64 `yaml:"max_body_size,omitempty"`
}

// LoadConfigFile loads defaults from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply merges file values into the config, filling only fields the user
// did not already set on the command line.
func (f *File) Apply(c *Config) {
	if f.PacingProfile != "" && c.PacingProfile == "" {
		c.PacingProfile = f.PacingProfile
	}
	if f.DataDir != "" && c.DataDir == "" {
		c.DataDir = f.DataDir
	}
	if f.BearerToken != "" && c.BearerToken == "" {
		c.BearerToken = f.BearerToken
	}
	if f.UserAgent != "" && c.UserAgent == "" {
		c.UserAgent = f.UserAgent
	}
	if f.MaxBodySize > 0 && c.MaxBodySize == 0 {
		c.MaxBodySize = f.MaxBodySize
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .deletia in the current directory
// 3. Look for .deletia in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if
// not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
