package surface_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/openwx/internal/bus"
	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/observability"
	"github.com/i474232898/openwx/internal/session"
	"github.com/i474232898/openwx/internal/store"
	"github.com/i474232898/openwx/internal/surface"
	"github.com/i474232898/openwx/internal/weather"
)

// --- fakes ---

type fakeProvider struct {
	mu      sync.Mutex
	queries []string
}

func (p *fakeProvider) FetchCurrent(_ context.Context, q weather.Query) (weather.Reading, error) {
	p.mu.Lock()
	p.queries = append(p.queries, q.String())
	p.mu.Unlock()

	label := q.String()
	if q.Kind() == weather.QueryOrigin {
		label = "Tokyo"
	}
	return weather.Reading{LocationLabel: label, CountryLabel: "Somewhere", TemperatureC: 21, ConditionText: "Sunny", IsDaytime: true}, nil
}

func (p *fakeProvider) FetchForecast(context.Context, weather.Query, int) (weather.Forecast, error) {
	return nil, nil
}

func (p *fakeProvider) Queries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.queries...)
}

type fixture struct {
	provider *fakeProvider
	bus      *bus.Bus
	backend  *store.MemoryBackend
	dash     *surface.Dashboard
}

func newFixture(t *testing.T, opts surface.DashboardOptions, saved ...string) *fixture {
	t.Helper()
	m := observability.NewMetricsForTesting()
	log := logger.Nop()

	p := &fakeProvider{}
	b := bus.New(m, log)
	backend := store.NewMemoryBackend(store.DefaultFavoritesKey, saved...)
	favs, err := store.NewFavorites(context.Background(), backend, m, log)
	require.NoError(t, err)

	d := surface.NewDashboard(session.New(p, nil, m, log), favs, b, opts, log)
	t.Cleanup(d.Close)
	return &fixture{provider: p, bus: b, backend: backend, dash: d}
}

func await(t *testing.T, ch <-chan session.Outcome) session.Outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return session.Outcome{}
	}
}

// --- dashboard ---

func TestDashboard_StartOpensFirstFavorite(t *testing.T) {
	f := newFixture(t, surface.DashboardOptions{}, "Lima", "Oslo")

	out := await(t, f.dash.Start(context.Background()))

	assert.Equal(t, session.ResultApplied, out.Result)
	assert.Equal(t, []string{"Lima"}, f.provider.Queries())
	assert.Equal(t, "Lima, Somewhere", f.dash.View().Title)
}

func TestDashboard_StartWithoutFavoritesUsesNetworkOrigin(t *testing.T) {
	f := newFixture(t, surface.DashboardOptions{})

	await(t, f.dash.Start(context.Background()))

	assert.Equal(t, []string{"auto:ip"}, f.provider.Queries())
	assert.Equal(t, "ready", f.dash.View().State)
	assert.Equal(t, "Tokyo", f.dash.View().Query)
}

func TestDashboard_LocateUsesDevicePosition(t *testing.T) {
	loc := surface.LocatorFunc(func(context.Context) (float64, float64, error) {
		return 12.971399, 77.594563, nil
	})
	f := newFixture(t, surface.DashboardOptions{Locator: loc})

	await(t, f.dash.Start(context.Background()))

	assert.Equal(t, []string{"12.9714,77.5946"}, f.provider.Queries())
}

func TestDashboard_LocateTimeoutFallsBackToOrigin(t *testing.T) {
	loc := surface.LocatorFunc(func(ctx context.Context) (float64, float64, error) {
		<-ctx.Done()
		return 0, 0, ctx.Err()
	})
	f := newFixture(t, surface.DashboardOptions{Locator: loc, LocateTimeout: 20 * time.Millisecond})

	await(t, f.dash.Locate(nil))

	assert.Equal(t, []string{"auto:ip"}, f.provider.Queries())
}

func TestDashboard_LocateWithExplicitPosition(t *testing.T) {
	f := newFixture(t, surface.DashboardOptions{})

	await(t, f.dash.Locate(&surface.Position{Lat: -33.86882, Lon: 151.20929}))

	assert.Equal(t, []string{"-33.8688,151.2093"}, f.provider.Queries())
}

func TestDashboard_SearchRejectsBlank(t *testing.T) {
	f := newFixture(t, surface.DashboardOptions{})

	_, err := f.dash.Search("   ")

	require.Error(t, err)
	assert.Equal(t, "Please enter a city name.", err.Error())
	assert.Empty(t, f.provider.Queries())
}

func TestDashboard_RefreshNeedsQuery(t *testing.T) {
	f := newFixture(t, surface.DashboardOptions{})

	_, err := f.dash.Refresh()
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrInvalidInput)
	assert.Equal(t, "Nothing to refresh yet.", err.Error())

	out, err := f.dash.Search("Paris")
	require.NoError(t, err)
	await(t, out)

	out, err = f.dash.Refresh()
	require.NoError(t, err)
	await(t, out)
	assert.Equal(t, []string{"Paris", "Paris"}, f.provider.Queries())
}

func TestDashboard_AddFavoriteUsesCurrentLocation(t *testing.T) {
	f := newFixture(t, surface.DashboardOptions{})

	_, err := f.dash.AddFavorite()
	require.Error(t, err)
	assert.Equal(t, "No city to add.", err.Error())

	out, err := f.dash.Search("Paris")
	require.NoError(t, err)
	await(t, out)

	label, err := f.dash.AddFavorite()
	require.NoError(t, err)
	assert.Equal(t, "Paris", label)
	_, err = f.dash.AddFavorite()
	require.NoError(t, err)

	assert.Equal(t, []string{"Paris"}, f.dash.Favorites())
	saved, _ := f.backend.Load(context.Background())
	assert.Equal(t, []string{"Paris"}, saved)

	removed, err := f.dash.RemoveFavorite("Paris")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, f.dash.Favorites())
}

func TestDashboard_ToggleUnitDoesNotFetch(t *testing.T) {
	f := newFixture(t, surface.DashboardOptions{})
	out, err := f.dash.Search("Paris")
	require.NoError(t, err)
	await(t, out)

	f.dash.ToggleUnit()

	assert.Equal(t, "70°F", f.dash.View().Temperature)
	assert.Len(t, f.provider.Queries(), 1)
}

// --- widget ---

func TestWidget_MirrorsBroadcastReadings(t *testing.T) {
	f := newFixture(t, surface.DashboardOptions{})
	w := surface.NewWidget(f.bus, logger.Nop())
	defer w.Close()

	views := make(chan session.View, 4)
	w.OnUpdate(func(v session.View) { views <- v })
	w.Start(context.Background())

	assert.Equal(t, "idle", w.View().State)

	out, err := f.dash.Search("Paris")
	require.NoError(t, err)
	await(t, out)

	select {
	case v := <-views:
		assert.Equal(t, "Paris, Somewhere", v.Title)
		assert.Equal(t, "21°C", v.Temperature)
		assert.Equal(t, weather.CategoryClearDay, v.Category)
	case <-time.After(2 * time.Second):
		t.Fatal("widget never saw the broadcast")
	}

	assert.Equal(t, weather.Fahrenheit, w.ToggleUnit())
	assert.Equal(t, "70°F", w.View().Temperature)
	assert.Equal(t, "21°C", f.dash.View().Temperature, "units are per surface")
}

func TestWidget_TapRequestsForcedRefresh(t *testing.T) {
	f := newFixture(t, surface.DashboardOptions{})
	w := surface.NewWidget(f.bus, logger.Nop())
	defer w.Close()

	scheduler := f.bus.Subscribe("scheduler", 0, bus.ForceRefresh)
	defer scheduler.Close()

	w.Tap()

	select {
	case msg := <-scheduler.C():
		assert.Equal(t, bus.ForceRefresh, msg.Kind)
		assert.Equal(t, "idle", w.View().State, "tapping never fetches by itself")
	case <-time.After(time.Second):
		t.Fatal("no ForceRefresh published")
	}
	assert.Empty(t, f.provider.Queries())
}

func TestWidget_RequestFocusReachesDashboard(t *testing.T) {
	var focused atomic.Int32
	f := newFixture(t, surface.DashboardOptions{Focuser: surface.FocuserFunc(func() { focused.Add(1) })})
	await(t, f.dash.Start(context.Background()))

	w := surface.NewWidget(f.bus, logger.Nop())
	defer w.Close()
	w.RequestFocus()

	assert.Eventually(t, func() bool { return focused.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}
