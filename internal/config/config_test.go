package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENWX_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "relay", cfg.ProviderMode)
	assert.Empty(t, cfg.BackendBase)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 180*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 3, cfg.ForecastDays)
	assert.Equal(t, 8*time.Second, cfg.LocateTimeout)
	assert.Equal(t, "sqlite", cfg.FavoritesBackend)
	assert.Equal(t, "weatherapp.favs", cfg.FavoritesKey)
	assert.Equal(t, "127.0.0.1:8765", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_CustomEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENWX_PROVIDER_MODE", "direct")
	t.Setenv("OPENWX_WEATHERAPI_KEY", "k123")
	t.Setenv("OPENWX_BACKEND_BASE", "http://localhost:9000")
	t.Setenv("OPENWX_REFRESH_INTERVAL", "5m")
	t.Setenv("OPENWX_FORECAST_DAYS", "7")
	t.Setenv("OPENWX_FAVORITES_BACKEND", "file")
	t.Setenv("OPENWX_DATA_DIR", dir)
	t.Setenv("OPENWX_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("OPENWX_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "direct", cfg.ProviderMode)
	assert.Equal(t, "k123", cfg.WeatherAPIKey)
	assert.Equal(t, "http://localhost:9000", cfg.BackendBase)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 7, cfg.ForecastDays)
	assert.Equal(t, "file", cfg.FavoritesBackend)
	assert.Equal(t, filepath.Join(dir, "favorites.json"), cfg.FavoritesFile())
	assert.Equal(t, filepath.Join(dir, "openwx.db"), cfg.SQLitePath())
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidValuesNameTheVariable(t *testing.T) {
	tests := []struct {
		env, value, want string
	}{
		{"OPENWX_HTTP_TIMEOUT", "soon", "OPENWX_HTTP_TIMEOUT"},
		{"OPENWX_REFRESH_INTERVAL", "10ms", "OPENWX_REFRESH_INTERVAL"},
		{"OPENWX_FORECAST_DAYS", "9", "OPENWX_FORECAST_DAYS"},
		{"OPENWX_FORECAST_DAYS", "three", "OPENWX_FORECAST_DAYS"},
		{"OPENWX_PROVIDER_MODE", "proxy", "OPENWX_PROVIDER_MODE"},
		{"OPENWX_FAVORITES_BACKEND", "redis", "OPENWX_FAVORITES_BACKEND"},
		{"OPENWX_LOG_LEVEL", "loud", "OPENWX_LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv("OPENWX_DATA_DIR", t.TempDir())
			t.Setenv(tt.env, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_DirectModeRequiresKey(t *testing.T) {
	t.Setenv("OPENWX_DATA_DIR", t.TempDir())
	t.Setenv("OPENWX_PROVIDER_MODE", "direct")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENWX_WEATHERAPI_KEY")
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openwx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("refresh_interval: 10m\nfavorites_backend: memory\n"), 0o644))
	t.Setenv("OPENWX_CONFIG", path)
	t.Setenv("OPENWX_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "memory", cfg.FavoritesBackend)
}
