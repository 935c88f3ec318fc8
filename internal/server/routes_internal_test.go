package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.klb.dev/lanpaste/internal/logging"
)

func TestRecoverer_Returns500WithErrorText(t *testing.T) {
	h := recoverer(logging.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("template exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "template exploded") {
		t.Errorf("body: got %q", body)
	}
}

func TestRecoverer_PassesThrough(t *testing.T) {
	h := recoverer(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status: got %d, want 418", rec.Code)
	}
}

func TestStateString(t *testing.T) {
	if StateRunning.String() != "running" || State(42).String() != "state(42)" {
		t.Error("unexpected State strings")
	}
}
