//go:build !windows

package ipc

import (
	"net"
	"os"
	"path/filepath"
)

func socketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "lanpaste.sock")
	}
	return filepath.Join(os.TempDir(), "lanpaste.sock")
}

func listen(path string) (net.Listener, error) {
	// Remove a stale socket from a previous (crashed) run.
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	_ = os.Chmod(path, 0o600)
	return ln, nil
}

func dial(path string) (net.Conn, error) {
	return net.Dial("unix", path)
}
