// Package metrics holds the Prometheus collectors for the sync server and
// event bridge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lanpaste"

// Metrics groups every lanpaste collector. A nil *Metrics is valid and
// records nothing, so components can run without a registry.
type Metrics struct {
	Clients          prometheus.Gauge
	ConnectionsTotal prometheus.Counter
	InboundTotal     prometheus.Counter
	FramesSent       *prometheus.CounterVec
	FramesDropped    prometheus.Counter
	BacklogDepth     prometheus.Gauge
	BacklogEvicted   prometheus.Counter
	EventsTotal      *prometheus.CounterVec
	EventsDropped    prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clients",
			Help:      "Number of live WebSocket clients.",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total WebSocket connections accepted.",
		}),
		InboundTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Total text frames received from web clients.",
		}),
		FramesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Total envelopes queued to web clients, by envelope type.",
		}, []string{"type"}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Envelopes dropped because a client's send buffer was full.",
		}),
		BacklogDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backlog_depth",
			Help:      "Texts waiting in the backlog queue.",
		}),
		BacklogEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backlog_evicted_total",
			Help:      "Backlog entries evicted to respect the capacity.",
		}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Sync events emitted, by source.",
		}, []string{"source"}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Sync events dropped because a subscriber was too slow.",
		}),
	}
}

// Handler serves the collectors registered on g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.Clients.Inc()
	m.ConnectionsTotal.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.Clients.Dec()
}

func (m *Metrics) Inbound() {
	if m == nil {
		return
	}
	m.InboundTotal.Inc()
}

func (m *Metrics) FrameSent(envType string) {
	if m == nil {
		return
	}
	m.FramesSent.WithLabelValues(envType).Inc()
}

func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}
	m.FramesDropped.Inc()
}

func (m *Metrics) Backlog(depth int, evicted bool) {
	if m == nil {
		return
	}
	m.BacklogDepth.Set(float64(depth))
	if evicted {
		m.BacklogEvicted.Inc()
	}
}

func (m *Metrics) Event(source string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}
