package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/openwx/internal/bus"
	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/observability"
	"github.com/i474232898/openwx/internal/session"
)

// DefaultInterval is the automatic refresh period.
const DefaultInterval = 180 * time.Second

const (
	TriggerInterval = "interval"
	TriggerForced   = "forced"
)

// Target is a session the scheduler refreshes.
type Target interface {
	Refresh(ctx context.Context, origin session.Origin) (<-chan session.Outcome, bool)
	Snapshot() session.Snapshot
}

// FireResult summarizes one fire across all tracked targets.
type FireResult struct {
	Fired     int
	Coalesced int
	Skipped   int
}

// Scheduler refreshes tracked sessions on a fixed interval and on ForceRefresh.
// Both triggers share one fire path; a target already fetching is coalesced.
type Scheduler struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	bus       *bus.Bus
	sub       *bus.Subscription
	metrics   *observability.Metrics
	log       *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	targets map[string]Target
}

// New creates a new Scheduler. b may be nil when no bus trigger is wanted.
func New(interval time.Duration, b *bus.Bus, metrics *observability.Metrics, log *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		bus:       b,
		metrics:   metrics,
		log:       log.Named("scheduler"),
		ctx:       ctx,
		cancel:    cancel,
		targets:   make(map[string]Target),
	}
}

// Track adds or replaces a named target.
func (s *Scheduler) Track(name string, t Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[name] = t
}

// Untrack removes a named target.
func (s *Scheduler) Untrack(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, name)
}

// Start schedules the interval job and starts listening for ForceRefresh.
// The first interval fire happens one full interval after Start.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		s.fire(TriggerInterval)
	})
	if err != nil {
		return err
	}

	if s.bus != nil {
		s.sub = s.bus.Subscribe("scheduler", 0, bus.ForceRefresh)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for range s.sub.C() {
				s.fire(TriggerForced)
			}
		}()
	}

	s.scheduler.StartAsync()
	s.log.Infow("refresh scheduler started", "interval", s.interval)
	return nil
}

// ForceRefresh fires immediately without touching the interval phase.
func (s *Scheduler) ForceRefresh() FireResult {
	return s.fire(TriggerForced)
}

func (s *Scheduler) fire(trigger string) FireResult {
	var res FireResult
	if s.ctx.Err() != nil {
		return res
	}

	s.mu.Lock()
	names := make([]string, 0, len(s.targets))
	targets := make(map[string]Target, len(s.targets))
	for name, t := range s.targets {
		names = append(names, name)
		targets[name] = t
	}
	s.mu.Unlock()
	sort.Strings(names)

	for _, name := range names {
		t := targets[name]
		if t.Snapshot().Query.IsZero() {
			res.Skipped++
			continue
		}

		outcome, ok := t.Refresh(s.ctx, session.OriginBackground)
		if !ok {
			res.Coalesced++
			s.metrics.RefreshCoalesced.WithLabelValues(trigger).Inc()
			continue
		}
		res.Fired++
		s.metrics.RefreshFires.WithLabelValues(trigger).Inc()

		s.wg.Add(1)
		go func(name string) {
			defer s.wg.Done()
			out, ok := <-outcome
			if ok && out.Err != nil {
				s.metrics.RefreshFailures.Inc()
				s.log.Warnw("refresh failed", "target", name, "trigger", trigger, "err", out.Err)
			}
		}(name)
	}

	s.log.Debugw("refresh fired", "trigger", trigger, "fired", res.Fired, "coalesced", res.Coalesced, "skipped", res.Skipped)
	return res
}

// Stop stops the interval job, unsubscribes from the bus and waits for outstanding refreshes.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.sub != nil {
		s.sub.Close()
	}
	s.wg.Wait()
}
