package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "console", s.Log.Format)
	assert.Equal(t, "stderr", s.Log.Output)
	assert.Equal(t, ":8080", s.Server.Addr)
	assert.Equal(t, 15*time.Second, s.Server.ReadTimeout)
	assert.Equal(t, "release", s.Server.Mode)
	assert.Empty(t, s.Rates.BaseURL)
	assert.Zero(t, s.Rates.Timeout)
}

func TestLoadSettings_Environment(t *testing.T) {
	t.Setenv("FAKTUROWNIK_LOG_LEVEL", "debug")
	t.Setenv("FAKTUROWNIK_LOG_FORMAT", "json")
	t.Setenv("FAKTUROWNIK_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("FAKTUROWNIK_RATES_BASE_URL", "http://localhost:1234/api")
	t.Setenv("FAKTUROWNIK_RATES_TIMEOUT", "2s")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
	assert.Equal(t, "127.0.0.1:9000", s.Server.Addr)
	assert.Equal(t, "http://localhost:1234/api", s.Rates.BaseURL)
	assert.Equal(t, 2*time.Second, s.Rates.Timeout)
}

func TestLoadSettings_BadMode(t *testing.T) {
	t.Setenv("FAKTUROWNIK_SERVER_MODE", "turbo")
	_, err := LoadSettings()
	assert.Error(t, err)
}
