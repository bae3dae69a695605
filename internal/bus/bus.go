// Package bus carries best-effort messages between display surfaces.
package bus

import (
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/observability"
	"github.com/i474232898/openwx/internal/weather"
)

// Kind names a message type.
type Kind string

const (
	// RequestFocus asks the dashboard to come to the foreground.
	RequestFocus Kind = "requestFocus"
	// BroadcastReading shares a fresh reading with every other surface.
	BroadcastReading Kind = "broadcastReading"
	// ForceRefresh asks the scheduler to refresh now.
	ForceRefresh Kind = "forceRefresh"
)

// DefaultBuffer is the per-subscription queue depth.
const DefaultBuffer = 16

// Message is what travels on the bus. Reading is set for BroadcastReading only.
type Message struct {
	Kind    Kind             `json:"kind"`
	Source  string           `json:"source,omitempty"`
	Reading *weather.Reading `json:"reading,omitempty"`
}

// Bus fans messages out to subscriptions. Delivery never blocks: a subscriber whose
// buffer is full misses the message. There is no replay for late subscribers.
type Bus struct {
	mu      sync.Mutex
	subs    map[uuid.UUID]*Subscription
	metrics *observability.Metrics
	log     *logger.Logger
}

// New creates an empty bus.
func New(metrics *observability.Metrics, log *logger.Logger) *Bus {
	return &Bus{
		subs:    make(map[uuid.UUID]*Subscription),
		metrics: metrics,
		log:     log.Named("bus"),
	}
}

// Subscription is one mounted surface's inbox.
type Subscription struct {
	ID   uuid.UUID
	Name string

	ch    chan Message
	kinds map[Kind]struct{}
	bus   *Bus
	once  sync.Once
}

// Subscribe mounts a subscriber. With no kinds it receives every kind.
func (b *Bus) Subscribe(name string, buffer int, kinds ...Kind) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{
		ID:   uuid.New(),
		Name: name,
		ch:   make(chan Message, buffer),
		bus:  b,
	}
	if len(kinds) > 0 {
		s.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs[s.ID] = s
	b.mu.Unlock()

	b.log.Debugw("subscribed", "name", name, "id", s.ID)
	return s
}

// C is the receive side. It is closed by Close.
func (s *Subscription) C() <-chan Message { return s.ch }

// Publish sends msg to every other subscription, with this subscription as the source.
func (s *Subscription) Publish(msg Message) int {
	msg.Source = s.ID.String()
	return s.bus.Publish(msg)
}

// Close unmounts the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.ID)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}

func (s *Subscription) wants(k Kind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// Publish delivers msg to every subscription except its source and returns how many
// received it. Sends happen under the bus lock so one publisher's messages keep their order.
func (b *Bus) Publish(msg Message) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.BusPublished.WithLabelValues(string(msg.Kind)).Inc()

	delivered := 0
	for id, s := range b.subs {
		if id.String() == msg.Source || !s.wants(msg.Kind) {
			continue
		}
		select {
		case s.ch <- msg:
			delivered++
		default:
			b.metrics.BusDropped.WithLabelValues(string(msg.Kind)).Inc()
			b.log.Debugw("subscriber busy, message dropped", "name", s.Name, "kind", msg.Kind)
		}
	}
	return delivered
}

// Len reports the number of mounted subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
