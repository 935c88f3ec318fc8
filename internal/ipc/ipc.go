// Package ipc provides the local control channel between the lanpaste CLI
// (push, pop, status, events) and a running daemon.
//
// The channel is newline-delimited JSON (see package wire) over a Unix
// domain socket, or a named pipe on Windows.
package ipc

import (
	"net"
	"os"
)

// SocketPath returns the platform-appropriate path for the IPC socket,
// honouring $LANPASTE_SOCKET.
func SocketPath() string {
	if s := os.Getenv("LANPASTE_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on the IPC
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on the IPC socket path.
func Listen() (net.Listener, error) {
	return listen(SocketPath())
}

// Dial connects to the IPC socket.
func Dial() (net.Conn, error) {
	return dial(SocketPath())
}
