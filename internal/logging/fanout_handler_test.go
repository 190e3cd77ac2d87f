package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := TeeHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsPerHandlerLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	info := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(TeeHandler(info, debug)).With(String(FieldTrack, "faces"))
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee to be enabled when any handler is")
	}
	logger.Debug("debug line")
	logger.Info("info line")

	if strings.Contains(infoBuf.String(), "debug line") {
		t.Fatal("info handler must not receive debug records")
	}
	for _, out := range []string{infoBuf.String(), debugBuf.String()} {
		if !strings.Contains(out, "info line") || !strings.Contains(out, "track=faces") {
			t.Fatalf("expected info line with attrs, got %q", out)
		}
	}
}
