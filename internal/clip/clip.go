// Package clip is the clipboard provider the event bridge subscribes to. It
// deals in UTF-8 text only.
//
//	clip_system.go: golang.design/x/clipboard, falling back to headless
//	clip.go:        headless no-op and in-memory backends
package clip

import (
	"sync"
)

// Backend is the interface every clipboard implementation satisfies.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard text, or "" when the clipboard is
	// empty or holds no text.
	Read() (string, error)

	// Write replaces the clipboard contents with text.
	Write(text string) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// may have changed. The channel is never closed; callers Read after each
	// signal.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// headlessBackend is a no-op backend for environments without a display
// server. It never signals and discards writes.
type headlessBackend struct {
	watchCh chan struct{}
}

// Headless returns the no-op backend.
func Headless() Backend {
	return &headlessBackend{watchCh: make(chan struct{})}
}

func (b *headlessBackend) Name() string           { return "headless (no-op)" }
func (b *headlessBackend) Read() (string, error)  { return "", nil }
func (b *headlessBackend) Write(_ string) error   { return nil }
func (b *headlessBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *headlessBackend) Close()                 {}

// Memory is an in-process clipboard. Write signals watchers, which makes it
// usable as a stand-in for the system clipboard.
type Memory struct {
	mu      sync.Mutex
	text    string
	watchCh chan struct{}
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{watchCh: make(chan struct{}, 1)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) Write(text string) error {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
	select {
	case m.watchCh <- struct{}{}:
	default:
	}
	return nil
}

func (m *Memory) Watch() <-chan struct{} { return m.watchCh }
func (m *Memory) Close()                 {}
