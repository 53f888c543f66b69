package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestLoadServer_Defaults(t *testing.T) {
	cfg, err := loadServer("", environ())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.WebRoot)
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestLoadServer_Precedence(t *testing.T) {
	env := environ("BACKEND_URL=http://env:3000", "PORT=9090", "HOST=0.0.0.0")

	cfg, err := loadServer("", env)
	require.NoError(t, err)
	assert.Equal(t, "http://env:3000", cfg.BackendURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())

	cfg, err = loadServer("  http://arg:3000 ", env)
	require.NoError(t, err)
	assert.Equal(t, "http://arg:3000", cfg.BackendURL)
}

func TestLoadServer_EmptyValuesFallThrough(t *testing.T) {
	cfg, err := loadServer("   ", environ("BACKEND_URL=", "HOST=  "))
	require.NoError(t, err)
	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, "localhost", cfg.Host)
}

func TestLoadServer_IgnoresUnrelatedEnvironment(t *testing.T) {
	cfg, err := loadServer("", environ("PATH=/usr/bin", "HOSTNAME=box", "BACKEND_URL_OLD=x"))
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
}

func TestLoadServer_Overrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := loadServer("", environ(
		"LOG_LEVEL=DEBUG",
		"LOG_PRETTY=true",
		"SHUTDOWN_TIMEOUT=3s",
		"WEB_ROOT=~/site",
	))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, home+"/site", cfg.WebRoot)
}

func TestLoadServer_RejectsInvalidValues(t *testing.T) {
	tests := map[string][]string{
		"port too large":   {"PORT=70000"},
		"port zero":        {"PORT=0"},
		"port not numeric": {"PORT=http"},
		"unknown level":    {"LOG_LEVEL=chatty"},
		"bad timeout":      {"SHUTDOWN_TIMEOUT=soon"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadServer("", environ(vars...))
			assert.Error(t, err)
		})
	}
}
