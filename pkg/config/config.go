// pkg/config/config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMaxFileSize is the largest input analysed unless configured otherwise.
const DefaultMaxFileSize int64 = 4 << 30

// DefaultRetryInterval is the wait before the first retry of a file that
// could not be opened.
const DefaultRetryInterval = 500 * time.Millisecond

// DefaultExtensions are the file extensions the dispatcher understands.
var DefaultExtensions = []string{".exe", ".msi", ".msix", ".msixbundle", ".appx", ".appxbundle", ".zip"}

// Configuration holds the configurable options in YAML format.
type Configuration struct {
	LogLevel    string   `yaml:"log_level"`
	LogFile     string   `yaml:"log_file,omitempty"`
	Debug       bool     `yaml:"debug"`
	Verbose     bool     `yaml:"verbose"`
	Workers     int      `yaml:"workers"`
	MaxFileSize int64    `yaml:"max_file_size"`
	OutputDir   string   `yaml:"output_dir,omitempty"`
	Extensions  []string `yaml:"extensions"`

	// Retries is how often opening a locked or unreadable file is retried.
	Retries       int           `yaml:"retries"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// DefaultConfigPath returns the per-OS location of the configuration file.
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "setupinfo", "config.yaml")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Preferences", "setupinfo", "config.yaml")
	default:
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			return filepath.Join(dir, "setupinfo", "config.yaml")
		}
		return filepath.Join(os.Getenv("HOME"), ".config", "setupinfo", "config.yaml")
	}
}

// LoadConfig reads the YAML file at path over the defaults. A missing file
// yields the defaults.
func LoadConfig(path string) (*Configuration, error) {
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating the directory if needed.
func SaveConfig(path string, cfg *Configuration) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		LogLevel:      "INFO",
		Workers:       runtime.NumCPU(),
		MaxFileSize:   DefaultMaxFileSize,
		Extensions:    append([]string(nil), DefaultExtensions...),
		Retries:       2,
		RetryInterval: DefaultRetryInterval,
	}
}
