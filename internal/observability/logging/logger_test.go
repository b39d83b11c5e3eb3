package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewTextLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTextLogger(&buf, "warn")

	logger.Info("submission_validated")
	logger.Warn("text_extraction_failed", "file", "thesis.pdf")

	out := buf.String()
	if strings.Contains(out, "submission_validated") {
		t.Fatalf("info record should be filtered: %s", out)
	}
	if !strings.Contains(out, "file=thesis.pdf") {
		t.Fatalf("warn record missing: %s", out)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug must be disabled at warn level")
	}
}
