package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.klb.dev/lanpaste/internal/logging"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]logging.Format{
		"json":  logging.FormatJSON,
		"JSON":  logging.FormatJSON,
		"text":  logging.FormatText,
		"tint":  logging.FormatText,
		"human": logging.FormatText,
		"":      logging.FormatAuto,
		"xml":   logging.FormatAuto,
	}
	for in, want := range cases {
		if got := logging.ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q): got %s, want %s", in, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if got := logging.ParseLevel("debug"); got != slog.LevelDebug {
		t.Errorf("debug: got %v", got)
	}
	if got := logging.ParseLevel("WARN"); got != slog.LevelWarn {
		t.Errorf("WARN: got %v", got)
	}
	if got := logging.ParseLevel("loud"); got != slog.LevelInfo {
		t.Errorf("unknown: got %v, want info", got)
	}
}

func TestNew_JSONWhenNotTTY(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.FormatAuto, slog.LevelInfo)
	log.Debug("hidden")
	log.Info("shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["msg"] != "shown" || rec["k"] != "v" {
		t.Errorf("record: got %v", rec)
	}
}

func TestNew_ForcedText(t *testing.T) {
	var buf bytes.Buffer
	logging.New(&buf, logging.FormatText, slog.LevelInfo).Info("hello")
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("forced text produced JSON: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("missing message: %q", buf.String())
	}
}

func TestOrDiscard(t *testing.T) {
	if logging.OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := slog.Default()
	if logging.OrDiscard(l) != l {
		t.Error("OrDiscard should return the given logger")
	}
}

func TestPreview(t *testing.T) {
	short := "abc"
	if logging.Preview(short) != short {
		t.Error("short text changed")
	}
	long := strings.Repeat("é", 200)
	got := logging.Preview(long)
	if n := len([]rune(got)); n != 121 {
		t.Errorf("preview runes: got %d, want 121", n)
	}
}
