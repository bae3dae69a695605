// Package bootstrap assembles the core from configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/openwx/internal/bus"
	"github.com/i474232898/openwx/internal/config"
	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/observability"
	"github.com/i474232898/openwx/internal/scheduler"
	"github.com/i474232898/openwx/internal/session"
	"github.com/i474232898/openwx/internal/store"
	"github.com/i474232898/openwx/internal/surface"
	"github.com/i474232898/openwx/internal/weather"
	"github.com/i474232898/openwx/internal/weather/providers"
)

// App holds the wired core.
type App struct {
	Config    *config.AppConfig
	Log       *logger.Logger
	Metrics   *observability.Metrics
	Service   *weather.Service
	Bus       *bus.Bus
	Favorites *store.Favorites
	Dashboard *surface.Dashboard
	Scheduler *scheduler.Scheduler

	db *sql.DB
}

// Options customize New beyond configuration.
type Options struct {
	Metrics *observability.Metrics // defaults to metrics on the default registry
	Locator surface.Locator
	Focuser surface.Focuser
}

// New wires every component. A favorites load failure is logged and the app starts with
// an empty list.
func New(ctx context.Context, cfg *config.AppConfig, log *logger.Logger, opts Options) (*App, error) {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	provider := providers.NewClient(httpClient, providers.Options{
		Mode:      providers.Mode(cfg.ProviderMode),
		BaseURL:   cfg.BackendBase,
		ClientKey: cfg.ClientKey,
		APIKey:    cfg.WeatherAPIKey,
	}, metrics, log)

	backend, db, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}
	favorites, err := store.NewFavorites(ctx, backend, metrics, log)
	var persistErr *store.PersistError
	if err != nil && !errors.As(err, &persistErr) {
		return nil, err
	}

	b := bus.New(metrics, log)
	sess := session.New(provider, clockwork.NewRealClock(), metrics, log)
	dash := surface.NewDashboard(sess, favorites, b, surface.DashboardOptions{
		Locator:       opts.Locator,
		Focuser:       opts.Focuser,
		LocateTimeout: cfg.LocateTimeout,
	}, log)

	sched := scheduler.New(cfg.RefreshInterval, b, metrics, log)
	sched.Track("dashboard", sess)

	return &App{
		Config:    cfg,
		Log:       log,
		Metrics:   metrics,
		Service:   weather.NewService(provider, log),
		Bus:       b,
		Favorites: favorites,
		Dashboard: dash,
		Scheduler: sched,
		db:        db,
	}, nil
}

func openBackend(cfg *config.AppConfig) (store.Backend, *sql.DB, error) {
	switch cfg.FavoritesBackend {
	case "memory":
		return store.NewMemoryBackend(cfg.FavoritesKey), nil, nil
	case "file":
		return store.NewFileBackend(cfg.FavoritesFile(), cfg.FavoritesKey), nil, nil
	default:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := store.OpenSQLite(cfg.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLiteBackend(db, cfg.FavoritesKey), db, nil
	}
}

// Start begins the dashboard's first fetch and the refresh scheduler.
func (a *App) Start(ctx context.Context) error {
	a.Dashboard.Start(ctx)
	return a.Scheduler.Start()
}

// Close stops background work and releases storage.
func (a *App) Close() error {
	a.Scheduler.Stop()
	a.Dashboard.Close()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
