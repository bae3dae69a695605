// Package surface implements the two display surfaces: the dashboard that owns a session
// and the favorites list, and the companion widget that mirrors broadcast readings.
package surface

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/openwx/internal/bus"
	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/session"
	"github.com/i474232898/openwx/internal/store"
	"github.com/i474232898/openwx/internal/weather"
)

// DefaultLocateTimeout bounds a device geolocation attempt.
const DefaultLocateTimeout = 8 * time.Second

// ErrRefreshInFlight is returned when a refresh for the active query is already running.
var ErrRefreshInFlight = errors.New("refresh already in progress")

// Locator reports the device position.
type Locator interface {
	Locate(ctx context.Context) (lat, lon float64, err error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (float64, float64, error)

func (f LocatorFunc) Locate(ctx context.Context) (float64, float64, error) { return f(ctx) }

// Focuser brings the dashboard window to the foreground.
type Focuser interface {
	Focus()
}

// FocuserFunc adapts a function to Focuser.
type FocuserFunc func()

func (f FocuserFunc) Focus() { f() }

// DashboardOptions holds the optional collaborators of a Dashboard.
type DashboardOptions struct {
	Locator       Locator
	Focuser       Focuser
	LocateTimeout time.Duration
}

// Dashboard is the primary surface.
type Dashboard struct {
	session   *session.Session
	favorites *store.Favorites
	bus       *bus.Bus
	locator   Locator
	focuser   Focuser
	timeout   time.Duration
	log       *logger.Logger

	ctx context.Context
	sub *bus.Subscription
	wg  sync.WaitGroup

	mu            sync.Mutex
	lastBroadcast uint64
}

// NewDashboard wires a dashboard around sess. Successful fetches are broadcast on b.
func NewDashboard(sess *session.Session, favorites *store.Favorites, b *bus.Bus, opts DashboardOptions, log *logger.Logger) *Dashboard {
	if opts.LocateTimeout <= 0 {
		opts.LocateTimeout = DefaultLocateTimeout
	}
	d := &Dashboard{
		session:   sess,
		favorites: favorites,
		bus:       b,
		locator:   opts.Locator,
		focuser:   opts.Focuser,
		timeout:   opts.LocateTimeout,
		log:       log.Named("dashboard"),
		ctx:       context.Background(),
	}
	d.sub = b.Subscribe("dashboard", 0, bus.RequestFocus)
	sess.OnChange(d.broadcastIfNew)
	return d
}

// Session exposes the owned session for the scheduler.
func (d *Dashboard) Session() *session.Session { return d.session }

// Start runs the bus loop and performs the first transition: open the first favorite,
// or locate when there are none. Fetches issued later are bound to ctx.
func (d *Dashboard) Start(ctx context.Context) <-chan session.Outcome {
	d.ctx = ctx

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop(ctx)
	}()

	if first, ok := d.favorites.First(); ok {
		if out, err := d.OpenFavorite(first); err == nil {
			return out
		}
		d.log.Warnw("stored favorite is not a valid query", "label", first)
	}
	return d.Locate(nil)
}

func (d *Dashboard) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-d.sub.C():
			if !ok {
				return
			}
			if msg.Kind == bus.RequestFocus {
				d.log.Debugw("focus requested", "source", msg.Source)
				if d.focuser != nil {
					d.focuser.Focus()
				}
			}
		}
	}
}

// Close unmounts the dashboard from the bus.
func (d *Dashboard) Close() {
	d.sub.Close()
	d.wg.Wait()
}

func (d *Dashboard) broadcastIfNew(snap session.Snapshot) {
	if snap.Reading == nil {
		return
	}
	d.mu.Lock()
	if snap.ReadingSeq <= d.lastBroadcast {
		d.mu.Unlock()
		return
	}
	d.lastBroadcast = snap.ReadingSeq
	d.mu.Unlock()

	d.sub.Publish(bus.Message{Kind: bus.BroadcastReading, Reading: snap.Reading})
}

// Search fetches weather for free text typed by the user.
func (d *Dashboard) Search(text string) (<-chan session.Outcome, error) {
	q, err := weather.ParseQuery(text)
	if err != nil {
		return nil, err
	}
	return d.session.SetQuery(d.ctx, q), nil
}

// OpenFavorite makes a saved label the active query.
func (d *Dashboard) OpenFavorite(label string) (<-chan session.Outcome, error) {
	return d.Search(label)
}

// Position is a latitude/longitude pair supplied by the caller.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Locate fetches weather for at when given, otherwise for the device position.
// If the locator is missing, fails or times out the provider infers the location
// from the network origin.
func (d *Dashboard) Locate(at *Position) <-chan session.Outcome {
	if at != nil {
		if q, err := weather.Coordinates(at.Lat, at.Lon); err == nil {
			return d.session.SetQuery(d.ctx, q)
		}
		d.log.Infow("ignoring out of range coordinates", "lat", at.Lat, "lon", at.Lon)
	}
	if d.locator == nil {
		return d.session.SetQuery(d.ctx, weather.FromOrigin())
	}

	out := make(chan session.Outcome, 1)
	go func() {
		defer close(out)
		q := d.locate()
		if o, ok := <-d.session.SetQuery(d.ctx, q); ok {
			out <- o
		}
	}()
	return out
}

func (d *Dashboard) locate() weather.Query {
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	type fix struct {
		lat, lon float64
		err      error
	}
	done := make(chan fix, 1)
	go func() {
		lat, lon, err := d.locator.Locate(ctx)
		done <- fix{lat, lon, err}
	}()

	select {
	case f := <-done:
		if f.err != nil {
			d.log.Infow("geolocation failed; using network origin", "err", f.err)
			return weather.FromOrigin()
		}
		q, err := weather.Coordinates(f.lat, f.lon)
		if err != nil {
			d.log.Infow("geolocation returned invalid coordinates; using network origin", "err", err)
			return weather.FromOrigin()
		}
		return q
	case <-ctx.Done():
		d.log.Infow("geolocation timed out; using network origin", "timeout", d.timeout)
		return weather.FromOrigin()
	}
}

// ToggleUnit flips the display unit.
func (d *Dashboard) ToggleUnit() weather.Unit {
	return d.session.ToggleUnit()
}

// Refresh re-fetches the active query on the user's behalf.
func (d *Dashboard) Refresh() (<-chan session.Outcome, error) {
	if d.session.Snapshot().Query.IsZero() {
		return nil, &weather.InvalidInputError{Field: "query", Message: "Nothing to refresh yet."}
	}
	out, ok := d.session.Refresh(d.ctx, session.OriginUser)
	if !ok {
		return nil, ErrRefreshInFlight
	}
	return out, nil
}

// AddFavorite saves the location of the current reading. A *store.PersistError means
// the list changed but could not be written.
func (d *Dashboard) AddFavorite() (string, error) {
	snap := d.session.Snapshot()
	if snap.Reading == nil {
		return "", &weather.InvalidInputError{Field: "label", Message: "No city to add."}
	}
	label := snap.Reading.LocationLabel
	_, err := d.favorites.Add(d.ctx, label)
	return label, err
}

// RemoveFavorite deletes label from the saved list.
func (d *Dashboard) RemoveFavorite(label string) (int, error) {
	return d.favorites.Remove(d.ctx, label)
}

// Favorites returns the saved labels in order.
func (d *Dashboard) Favorites() []string {
	return d.favorites.List()
}

// View renders the current state.
func (d *Dashboard) View() session.View {
	return session.Render(d.session.Snapshot())
}
