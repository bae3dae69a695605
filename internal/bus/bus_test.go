package bus_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/openwx/internal/bus"
	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/observability"
	"github.com/i474232898/openwx/internal/weather"
)

func newBus() (*bus.Bus, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return bus.New(m, logger.Nop()), m
}

func drain(s *bus.Subscription) []bus.Message {
	var out []bus.Message
	for {
		select {
		case msg := <-s.C():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestBus_BroadcastSkipsSource(t *testing.T) {
	b, _ := newBus()
	dashboard := b.Subscribe("dashboard", 0)
	widget := b.Subscribe("widget", 0)
	defer dashboard.Close()
	defer widget.Close()

	r := weather.Reading{LocationLabel: "Paris"}
	n := dashboard.Publish(bus.Message{Kind: bus.BroadcastReading, Reading: &r})

	assert.Equal(t, 1, n)
	assert.Empty(t, drain(dashboard))
	got := drain(widget)
	require.Len(t, got, 1)
	assert.Equal(t, bus.BroadcastReading, got[0].Kind)
	assert.Equal(t, "Paris", got[0].Reading.LocationLabel)
	assert.Equal(t, dashboard.ID.String(), got[0].Source)
}

func TestBus_KindFilter(t *testing.T) {
	b, _ := newBus()
	scheduler := b.Subscribe("scheduler", 0, bus.ForceRefresh)
	defer scheduler.Close()

	b.Publish(bus.Message{Kind: bus.RequestFocus})
	b.Publish(bus.Message{Kind: bus.ForceRefresh})

	got := drain(scheduler)
	require.Len(t, got, 1)
	assert.Equal(t, bus.ForceRefresh, got[0].Kind)
}

func TestBus_UnmountedSubscriberMissesMessages(t *testing.T) {
	b, _ := newBus()

	assert.Zero(t, b.Publish(bus.Message{Kind: bus.RequestFocus}))

	late := b.Subscribe("dashboard", 0)
	defer late.Close()
	assert.Empty(t, drain(late), "no replay")
}

func TestBus_FullBufferDrops(t *testing.T) {
	b, m := newBus()
	slow := b.Subscribe("slow", 1)
	defer slow.Close()

	assert.Equal(t, 1, b.Publish(bus.Message{Kind: bus.ForceRefresh, Source: "tray"}))
	assert.Equal(t, 0, b.Publish(bus.Message{Kind: bus.ForceRefresh, Source: "tray"}))

	assert.Len(t, drain(slow), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BusDropped.WithLabelValues("forceRefresh")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BusPublished.WithLabelValues("forceRefresh")))
}

func TestBus_PreservesOrderPerSource(t *testing.T) {
	b, _ := newBus()
	sub := b.Subscribe("dashboard", 8)
	defer sub.Close()

	for _, label := range []string{"A", "B", "C"} {
		r := weather.Reading{LocationLabel: label}
		b.Publish(bus.Message{Kind: bus.BroadcastReading, Source: "widget", Reading: &r})
	}

	got := drain(sub)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Reading.LocationLabel)
	assert.Equal(t, "B", got[1].Reading.LocationLabel)
	assert.Equal(t, "C", got[2].Reading.LocationLabel)
}

func TestBus_CloseUnmounts(t *testing.T) {
	b, _ := newBus()
	sub := b.Subscribe("widget", 0)
	require.Equal(t, 1, b.Len())

	sub.Close()
	sub.Close()

	assert.Zero(t, b.Len())
	_, open := <-sub.C()
	assert.False(t, open)
	assert.Zero(t, b.Publish(bus.Message{Kind: bus.RequestFocus}))
}
