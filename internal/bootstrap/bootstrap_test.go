package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/openwx/internal/config"
	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/observability"
)

const tokyo = `{"location":{"name":"Tokyo","country":"Japan","localtime":"2024-05-01 14:05"},
"current":{"temp_c":18,"feelslike_c":18,"humidity":60,"wind_kph":10,"is_day":1,"condition":{"text":"Sunny","icon":"//x/1.png"}}}`

func testConfig(t *testing.T, base, backend string) *config.AppConfig {
	t.Helper()
	return &config.AppConfig{
		ProviderMode:     "relay",
		BackendBase:      base,
		HTTPTimeout:      2 * time.Second,
		RefreshInterval:  time.Hour,
		ForecastDays:     3,
		LocateTimeout:    time.Second,
		FavoritesBackend: backend,
		FavoritesKey:     "weatherapp.favs",
		DataDir:          t.TempDir(),
		ListenAddr:       "127.0.0.1:0",
		LogLevel:         "error",
	}
}

func TestNew_StartsWithNetworkOriginAndPersistsFavorites(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("q"))
		mu.Unlock()
		_, _ = w.Write([]byte(tokyo))
	}))
	defer srv.Close()

	ctx := context.Background()
	cfg := testConfig(t, srv.URL, "sqlite")
	app, err := New(ctx, cfg, logger.Nop(), Options{Metrics: observability.NewMetricsForTesting()})
	require.NoError(t, err)

	require.NoError(t, app.Start(ctx))
	assert.Eventually(t, func() bool { return app.Dashboard.View().State == "ready" }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Tokyo, Japan", app.Dashboard.View().Title)

	label, err := app.Dashboard.AddFavorite()
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", label)
	require.NoError(t, app.Close())
	mu.Lock()
	assert.Equal(t, []string{"auto:ip"}, queries)
	mu.Unlock()

	// a second start opens the saved favorite instead of locating
	again, err := New(ctx, cfg, logger.Nop(), Options{Metrics: observability.NewMetricsForTesting()})
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, []string{"Tokyo"}, again.Favorites.List())
}

func TestNew_FileAndMemoryBackends(t *testing.T) {
	for _, backend := range []string{"file", "memory"} {
		app, err := New(context.Background(), testConfig(t, "http://127.0.0.1:1", backend), logger.Nop(),
			Options{Metrics: observability.NewMetricsForTesting()})
		require.NoError(t, err, backend)
		assert.Empty(t, app.Favorites.List())
		require.NoError(t, app.Close())
	}
}
