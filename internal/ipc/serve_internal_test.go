package ipc

import (
	"net"
	"testing"
	"time"

	"go.klb.dev/lanpaste/internal/logging"
)

func TestHandleConn_SilentClientTimesOut(t *testing.T) {
	old := requestTimeout
	requestTimeout = 50 * time.Millisecond
	t.Cleanup(func() { requestTimeout = old })

	server, client := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		// The controller is never reached without a request.
		handleConn(server, nil, logging.Discard())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleConn still waiting for a request")
	}

	// The daemon side is closed.
	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := client.Read(make([]byte, 1)); err == nil {
		t.Error("read from closed connection: want error")
	}
}
