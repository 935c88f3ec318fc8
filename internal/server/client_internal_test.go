package server

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"go.klb.dev/lanpaste/internal/message"
	"go.klb.dev/lanpaste/internal/metrics"
)

// closedClient is a client whose transport is already torn down.
func closedClient() *client {
	c := &client{id: "closed", send: make(chan []byte, 1), done: make(chan struct{})}
	c.closeOnce.Do(func() { close(c.done) })
	return c
}

func TestClient_EnqueueReportsFullAndClosed(t *testing.T) {
	c := &client{id: "c", send: make(chan []byte, 1), done: make(chan struct{})}
	if err := c.enqueue([]byte("a")); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := c.enqueue([]byte("b")); !errors.Is(err, errSendBufferFull) {
		t.Errorf("full buffer: got %v, want errSendBufferFull", err)
	}

	if err := closedClient().enqueue([]byte("a")); !errors.Is(err, errClientClosed) {
		t.Errorf("closed client: got %v, want errClientClosed", err)
	}
}

func TestFanout_ClosedClientIsNotADrop(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := New(Config{Metrics: m})
	s.state = StateRunning

	c := closedClient()
	s.clients[c] = struct{}{}

	if err := s.Broadcast(message.Envelope{Type: message.EnvelopeServerText, Text: "x"}); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if got := testutil.ToFloat64(m.FramesDropped); got != 0 {
		t.Errorf("frames dropped: got %v, want 0", got)
	}
	// Removal is left to the client's read loop.
	if _, ok := s.clients[c]; !ok {
		t.Error("closed client removed by fanout")
	}
}
