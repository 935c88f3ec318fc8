package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"go.klb.dev/lanpaste/internal/metrics"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.ClientConnected()
	m.ClientDisconnected()
	m.Inbound()
	m.FrameSent("sync")
	m.FrameDropped()
	m.Backlog(3, true)
	m.Event("server")
	m.EventDropped()
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()
	m.Backlog(2, true)
	m.FrameSent("sync")
	m.FrameSent("sync")

	if got := testutil.ToFloat64(m.Clients); got != 1 {
		t.Errorf("clients: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConnectionsTotal); got != 2 {
		t.Errorf("connections_total: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BacklogDepth); got != 2 {
		t.Errorf("backlog_depth: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BacklogEvicted); got != 1 {
		t.Errorf("backlog_evicted_total: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FramesSent.WithLabelValues("sync")); got != 2 {
		t.Errorf("frames_sent_total{sync}: got %v, want 2", got)
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Inbound()

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "lanpaste_inbound_messages_total 1") {
		t.Errorf("metrics output missing inbound counter:\n%s", body)
	}
}
