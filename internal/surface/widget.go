package surface

import (
	"context"
	"sync"

	"github.com/i474232898/openwx/internal/bus"
	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/session"
	"github.com/i474232898/openwx/internal/weather"
)

// Widget is the companion surface. It never fetches: it shows the last reading another
// surface broadcast, with its own unit preference.
type Widget struct {
	sub *bus.Subscription
	log *logger.Logger
	wg  sync.WaitGroup

	mu       sync.Mutex
	reading  *weather.Reading
	unit     weather.Unit
	onUpdate func(session.View)
}

// NewWidget mounts a widget on b.
func NewWidget(b *bus.Bus, log *logger.Logger) *Widget {
	return &Widget{
		sub: b.Subscribe("widget", 0, bus.BroadcastReading),
		log: log.Named("widget"),
	}
}

// OnUpdate registers fn to receive the new view after each broadcast or unit change.
func (w *Widget) OnUpdate(fn func(session.View)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onUpdate = fn
}

// Start consumes broadcasts until ctx is done or the widget is closed.
func (w *Widget) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-w.sub.C():
				if !ok {
					return
				}
				if msg.Kind == bus.BroadcastReading && msg.Reading != nil {
					w.show(*msg.Reading)
				}
			}
		}
	}()
}

func (w *Widget) show(r weather.Reading) {
	w.mu.Lock()
	w.reading = &r
	fn := w.onUpdate
	v := w.viewLocked()
	w.mu.Unlock()

	if fn != nil {
		fn(v)
	}
}

// Tap asks for an immediate refresh.
func (w *Widget) Tap() {
	w.sub.Publish(bus.Message{Kind: bus.ForceRefresh})
}

// RequestFocus asks the dashboard to come forward.
func (w *Widget) RequestFocus() {
	w.sub.Publish(bus.Message{Kind: bus.RequestFocus})
}

// ToggleUnit flips the widget's own unit preference.
func (w *Widget) ToggleUnit() weather.Unit {
	w.mu.Lock()
	w.unit = w.unit.Toggle()
	u := w.unit
	fn := w.onUpdate
	v := w.viewLocked()
	w.mu.Unlock()

	if fn != nil {
		fn(v)
	}
	return u
}

// View renders the mirrored reading, or an idle view before the first broadcast.
func (w *Widget) View() session.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

func (w *Widget) viewLocked() session.View {
	if w.reading == nil {
		return session.View{State: session.Idle.String(), Unit: w.unit.String(), Category: weather.CategoryDefault}
	}
	return session.RenderReading(*w.reading, w.unit)
}

// Close unmounts the widget.
func (w *Widget) Close() {
	w.sub.Close()
	w.wg.Wait()
}
