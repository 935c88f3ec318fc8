//go:build !windows

package ipc_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.klb.dev/lanpaste/internal/bridge"
	"go.klb.dev/lanpaste/internal/clip"
	"go.klb.dev/lanpaste/internal/ipc"
	"go.klb.dev/lanpaste/internal/message"
)

// startControl serves a fresh, un-initialised service on a temp socket.
func startControl(t *testing.T) (*bridge.Service, *clip.Memory) {
	t.Helper()
	t.Setenv("LANPASTE_SOCKET", filepath.Join(t.TempDir(), "ctl.sock"))

	cb := clip.NewMemory()
	svc := bridge.New(bridge.Config{Clipboard: cb})
	ln, err := ipc.Listen()
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go ipc.Serve(ln, svc, nil)
	t.Cleanup(func() {
		ln.Close()
		svc.Dispose()
	})
	return svc, cb
}

func call(t *testing.T, req *message.Message) *message.Message {
	t.Helper()
	reply, err := ipc.Call(req)
	if err != nil {
		t.Fatalf("Call %s: %v", req.Type, err)
	}
	return reply
}

func TestServe_PopDrainsBacklog(t *testing.T) {
	svc, cb := startControl(t)
	svc.OnInboundFromServer(message.Inbound{Text: "one"})
	svc.OnInboundFromServer(message.Inbound{Text: "two"})

	r := call(t, &message.Message{Type: message.TypePop})
	if r.Type != message.TypeResult || !r.OK || r.Text != "one" {
		t.Errorf("first pop: got %+v", r)
	}
	r = call(t, &message.Message{Type: message.TypePop, Apply: true})
	if !r.OK || r.Text != "two" {
		t.Errorf("second pop: got %+v", r)
	}
	if got, _ := cb.Read(); got != "two" {
		t.Errorf("clipboard after apply: got %q", got)
	}
	if r = call(t, &message.Message{Type: message.TypePop}); r.OK {
		t.Errorf("pop on empty: got %+v", r)
	}
}

func TestServe_Status(t *testing.T) {
	svc, _ := startControl(t)
	svc.OnInboundFromServer(message.Inbound{Text: "x"})

	r := call(t, &message.Message{Type: message.TypeStatus})
	if r.Type != message.TypeStatusResponse || r.Status == nil {
		t.Fatalf("reply: got %+v", r)
	}
	if r.Status.State != "unbound" || r.Status.Backlog != 1 || r.Status.Clipboard != "memory" {
		t.Errorf("status: got %+v", r.Status)
	}
}

func TestServe_PushWithoutServer(t *testing.T) {
	startControl(t)
	r := call(t, &message.Message{Type: message.TypePush, Text: "hi"})
	if r.Type != message.TypeResult || r.OK {
		t.Errorf("push without server: got %+v", r)
	}

	cbReply := call(t, &message.Message{Type: message.TypePushClipboard})
	if cbReply.OK {
		t.Errorf("push clipboard without server: got %+v", cbReply)
	}
}

func TestServe_UnknownType(t *testing.T) {
	startControl(t)
	if _, err := ipc.Call(&message.Message{Type: "BOGUS"}); err == nil {
		t.Error("unknown type: want error")
	}
}

func TestServe_SubscribeStreamsEvents(t *testing.T) {
	svc, _ := startControl(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *message.Message, 4)
	done := make(chan error, 1)
	go func() {
		done <- ipc.Subscribe(ctx, func(m *message.Message) error {
			got <- m
			return nil
		})
	}()

	// Wait until the daemon side has subscribed, then emit.
	deadline := time.Now().Add(2 * time.Second)
	for {
		svc.OnClipboardChanged("ping")
		select {
		case m := <-got:
			if m.Type != message.TypeEvent || m.Source != "clipboard" || m.Text != "ping" {
				t.Errorf("event: got %+v", m)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Subscribe: %v", err)
			}
			return
		case <-time.After(20 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("no event streamed")
		}
	}
}
