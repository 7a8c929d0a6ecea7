package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFanout_RoutesByLevel(t *testing.T) {
	var debug, warn bytes.Buffer
	logger := slog.New(Fanout(
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	))

	logger.Debug("tick", "room", "main")
	logger.Warn("dropped", "room", "main")

	if got := debug.String(); !strings.Contains(got, "msg=tick") || !strings.Contains(got, "msg=dropped") {
		t.Errorf("debug sink = %q, want both records", got)
	}
	if got := warn.String(); strings.Contains(got, "msg=tick") || !strings.Contains(got, "msg=dropped") {
		t.Errorf("warn sink = %q, want only the warning", got)
	}
}

func TestFanout_AttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(Fanout(
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)).With("room", "main").WithGroup("player")

	logger.Info("joined", "id", "alice")

	if got := a.String(); !strings.Contains(got, "room=main") || !strings.Contains(got, "player.id=alice") {
		t.Errorf("text sink = %q", got)
	}
	if got := b.String(); !strings.Contains(got, `"room":"main"`) || !strings.Contains(got, `"player":{"id":"alice"}`) {
		t.Errorf("json sink = %q", got)
	}
}

func TestFanout_Enabled(t *testing.T) {
	h := Fanout(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("Enabled(info) = true with only an error handler")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Errorf("Enabled(error) = false")
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestFanout_KeepsGoingOnError(t *testing.T) {
	var out bytes.Buffer
	h := Fanout(failingHandler{slog.NewTextHandler(&bytes.Buffer{}, nil)}, slog.NewTextHandler(&out, nil))

	err := h.Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "hello", 0))
	if err == nil {
		t.Errorf("Handle() error = nil, want the failing sink's error")
	}
	if !strings.Contains(out.String(), "msg=hello") {
		t.Errorf("healthy sink = %q, want the record", out.String())
	}
}

func TestSetup_LocalOnly(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	shutdown, err := Setup(context.Background(), Options{ServiceName: "test", Level: slog.LevelWarn, Format: "json", Output: &out})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())

	slog.Info("hidden")
	slog.Warn("shown")
	if got := out.String(); strings.Contains(got, "hidden") || !strings.Contains(got, `"msg":"shown"`) {
		t.Errorf("output = %q, want only the JSON warning", got)
	}
}
