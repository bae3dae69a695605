// Package session holds the per-surface weather state machine.
//
// A Session owns the active query, the last good reading and the unit preference.
// Fetches run in their own goroutines and report back through Apply; each fetch
// carries a Ticket so results that arrive after the user has moved on are dropped.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/observability"
	"github.com/i474232898/openwx/internal/weather"
)

// State is the position in the fetch lifecycle.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Errored
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Errored:
		return "errored"
	default:
		return "idle"
	}
}

// Origin tells user-initiated fetches from scheduler refreshes.
type Origin int

const (
	OriginUser Origin = iota
	OriginBackground
)

func (o Origin) String() string {
	if o == OriginBackground {
		return "background"
	}
	return "user"
}

// Ticket identifies one issued fetch.
type Ticket struct {
	Query  weather.Query
	Seq    uint64
	Origin Origin
}

// Result says what Apply did with a fetch result.
type Result int

const (
	// ResultApplied: a reading replaced the last good reading.
	ResultApplied Result = iota + 1
	// ResultFailed: the error is now shown on the surface.
	ResultFailed
	// ResultSuppressed: a background failure, logged only.
	ResultSuppressed
	// ResultDiscarded: the ticket was superseded.
	ResultDiscarded
)

// Outcome is delivered once per issued fetch.
type Outcome struct {
	Ticket  Ticket
	Result  Result
	Reading weather.Reading
	Err     error
}

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	State        State
	Query        weather.Query
	Reading      *weather.Reading
	Unit         weather.Unit
	ErrorMessage string
	FetchedAt    time.Time
	// ReadingSeq is the ticket sequence that produced Reading; it grows with every new reading.
	ReadingSeq uint64
}

type pending struct {
	total int
	user  int
}

// Session is safe for concurrent use.
type Session struct {
	provider weather.Provider
	clock    clockwork.Clock
	metrics  *observability.Metrics
	log      *logger.Logger

	mu        sync.Mutex
	state     State
	query     weather.Query
	reading   *weather.Reading
	unit      weather.Unit
	errMsg    string
	fetchedAt time.Time
	readSeq   uint64
	seq       uint64
	applied   uint64
	inflight  map[weather.Query]*pending
	onChange  []func(Snapshot)
}

// New creates an Idle session with no active query.
func New(provider weather.Provider, clock clockwork.Clock, metrics *observability.Metrics, log *logger.Logger) *Session {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Session{
		provider: provider,
		clock:    clock,
		metrics:  metrics,
		log:      log.Named("session"),
		inflight: make(map[weather.Query]*pending),
	}
}

// OnChange registers fn to be called with a fresh snapshot after every visible change.
// Callbacks run on the goroutine that caused the change and must not block.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:        s.state,
		Query:        s.query,
		Unit:         s.unit,
		ErrorMessage: s.errMsg,
		FetchedAt:    s.fetchedAt,
		ReadingSeq:   s.readSeq,
	}
	if s.reading != nil {
		r := *s.reading
		snap.Reading = &r
	}
	return snap
}

// Begin records a fetch about to be issued. A user-origin ticket makes q the active
// query and moves the session to Loading; a background ticket changes nothing visible.
func (s *Session) Begin(q weather.Query, origin Origin) Ticket {
	s.mu.Lock()
	t := s.beginLocked(q, origin)
	snap := s.snapshotLocked()
	hooks := s.onChange
	s.mu.Unlock()

	if origin == OriginUser {
		notify(hooks, snap)
	}
	return t
}

func (s *Session) beginLocked(q weather.Query, origin Origin) Ticket {
	s.seq++
	t := Ticket{Query: q, Seq: s.seq, Origin: origin}

	p := s.inflight[q]
	if p == nil {
		p = &pending{}
		s.inflight[q] = p
	}
	p.total++

	if origin == OriginUser {
		p.user++
		s.query = q
		s.errMsg = ""
		s.state = Loading
	}
	return t
}

// Apply folds a fetch result into the session. Results for a query that is no longer
// active, or older than one already applied, are discarded.
func (s *Session) Apply(t Ticket, reading weather.Reading, err error) Outcome {
	s.mu.Lock()
	s.release(t)

	out := Outcome{Ticket: t, Reading: reading, Err: err}
	switch {
	case t.Query != s.query || t.Seq <= s.applied:
		out.Result = ResultDiscarded
		s.metrics.ResultsDiscarded.Inc()
	case err == nil:
		out.Result = ResultApplied
		s.applied = t.Seq
		r := reading
		s.reading = &r
		s.readSeq = t.Seq
		s.errMsg = ""
		s.fetchedAt = s.clock.Now()
		if s.query.Kind() == weather.QueryOrigin {
			// pin the resolved location so later refreshes ask for the same place
			if resolved, perr := weather.Place(reading.LocationLabel); perr == nil {
				s.query = resolved
			}
		}
		s.metrics.ResultsApplied.WithLabelValues("success").Inc()
	case t.Origin == OriginBackground:
		out.Result = ResultSuppressed
		s.metrics.ResultsApplied.WithLabelValues("suppressed").Inc()
	default:
		out.Result = ResultFailed
		s.applied = t.Seq
		s.errMsg = err.Error()
		s.metrics.ResultsApplied.WithLabelValues("failure").Inc()
	}

	prev := s.state
	s.state = s.settleLocked()
	changed := out.Result == ResultApplied || out.Result == ResultFailed || prev != s.state
	snap := s.snapshotLocked()
	hooks := s.onChange
	s.mu.Unlock()

	switch out.Result {
	case ResultDiscarded:
		s.log.Debugw("discarded stale result", "query", t.Query.String(), "seq", t.Seq)
	case ResultSuppressed:
		s.log.Infow("background refresh failed", "query", t.Query.String(), "err", err)
	case ResultFailed:
		s.log.Infow("fetch failed", "query", t.Query.String(), "err", err)
	}
	if changed {
		notify(hooks, snap)
	}
	return out
}

func (s *Session) release(t Ticket) {
	p := s.inflight[t.Query]
	if p == nil {
		return
	}
	p.total--
	if t.Origin == OriginUser {
		p.user--
	}
	if p.total <= 0 {
		delete(s.inflight, t.Query)
	}
}

// settleLocked derives the state from what is pending and what has been applied.
func (s *Session) settleLocked() State {
	if p := s.inflight[s.query]; p != nil && p.user > 0 {
		return Loading
	}
	switch {
	case s.reading != nil:
		return Ready
	case s.errMsg != "":
		return Errored
	case s.state == Loading:
		return Idle
	default:
		return s.state
	}
}

// SetQuery makes q the active query and fetches it. The channel receives exactly one
// Outcome and is then closed.
func (s *Session) SetQuery(ctx context.Context, q weather.Query) <-chan Outcome {
	return s.issue(ctx, s.Begin(q, OriginUser))
}

// Refresh re-fetches the active query. It returns false without fetching when there is
// no active query or a fetch for it is already in flight.
func (s *Session) Refresh(ctx context.Context, origin Origin) (<-chan Outcome, bool) {
	s.mu.Lock()
	q := s.query
	if q.IsZero() || s.inflight[q] != nil {
		s.mu.Unlock()
		return nil, false
	}
	t := s.beginLocked(q, origin)
	snap := s.snapshotLocked()
	hooks := s.onChange
	s.mu.Unlock()

	if origin == OriginUser {
		notify(hooks, snap)
	}
	return s.issue(ctx, t), true
}

func (s *Session) issue(ctx context.Context, t Ticket) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		reading, err := s.provider.FetchCurrent(ctx, t.Query)
		ch <- s.Apply(t, reading, err)
	}()
	return ch
}

// ToggleUnit flips the display unit. It never fetches.
func (s *Session) ToggleUnit() weather.Unit {
	s.mu.Lock()
	s.unit = s.unit.Toggle()
	u := s.unit
	snap := s.snapshotLocked()
	hooks := s.onChange
	s.mu.Unlock()

	notify(hooks, snap)
	return u
}

func notify(hooks []func(Snapshot), snap Snapshot) {
	for _, fn := range hooks {
		fn(snap)
	}
}
