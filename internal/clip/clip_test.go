package clip_test

import (
	"testing"
	"time"

	"go.klb.dev/lanpaste/internal/clip"
)

func TestMemory_WriteSignalsAndReads(t *testing.T) {
	m := clip.NewMemory()
	if err := m.Write("hello"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	select {
	case <-m.Watch():
	case <-time.After(time.Second):
		t.Fatal("no watch signal after Write")
	}
	got, _ := m.Read()
	if got != "hello" {
		t.Errorf("Read: got %q, want hello", got)
	}
}

func TestMemory_CoalescesSignals(t *testing.T) {
	m := clip.NewMemory()
	m.Write("a")
	m.Write("b")
	<-m.Watch()
	select {
	case <-m.Watch():
		t.Error("second signal: want coalesced")
	default:
	}
	if got, _ := m.Read(); got != "b" {
		t.Errorf("Read: got %q, want b", got)
	}
}

func TestHeadless(t *testing.T) {
	h := clip.Headless()
	defer h.Close()
	if err := h.Write("x"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, _ := h.Read(); got != "" {
		t.Errorf("Read: got %q, want empty", got)
	}
	select {
	case <-h.Watch():
		t.Error("headless backend signalled")
	default:
	}
}
