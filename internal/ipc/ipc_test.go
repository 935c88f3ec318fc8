//go:build !windows

package ipc_test

import (
	"path/filepath"
	"testing"

	"go.klb.dev/lanpaste/internal/ipc"
)

func TestListenDial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp.sock")
	t.Setenv("LANPASTE_SOCKET", path)

	if got := ipc.SocketPath(); got != path {
		t.Fatalf("SocketPath: got %s, want %s", got, path)
	}
	if ipc.IsRunning() {
		t.Fatal("IsRunning before Listen: want false")
	}

	ln, err := ipc.Listen()
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	if !ipc.IsRunning() {
		t.Error("IsRunning after Listen: want true")
	}
}
