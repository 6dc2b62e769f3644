package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: DEBUG\nworkers: 3\noutput_dir: /srv/out\nretry_interval: 1500ms\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "/srv/out", cfg.OutputDir)
	assert.Equal(t, DefaultMaxFileSize, cfg.MaxFileSize)
	assert.Equal(t, DefaultExtensions, cfg.Extensions)
	assert.Equal(t, 1500*time.Millisecond, cfg.RetryInterval)
	assert.Equal(t, 2, cfg.Retries)
}

func TestLoadConfigRepairsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: -1\nmax_file_size: 0\nextensions: []\nretries: -4\nretry_interval: 0s\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, 0, cfg.Retries)
	assert.Equal(t, DefaultRetryInterval, cfg.RetryInterval)
	assert.Equal(t, DefaultMaxFileSize, cfg.MaxFileSize)
	assert.Equal(t, DefaultExtensions, cfg.Extensions)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [unterminated\n"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse configuration file")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := GetDefaultConfig()
	cfg.LogFile = "/var/log/setupinfo.log"
	cfg.Workers = 2
	cfg.Extensions = []string{".msi"}
	cfg.RetryInterval = 2 * time.Second

	require.NoError(t, SaveConfig(path, cfg))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDefaultExtensionsAreCopied(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Extensions[0] = ".bin"
	assert.Equal(t, ".exe", DefaultExtensions[0])
}
