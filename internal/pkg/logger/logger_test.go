package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Format: "json", Output: &buf, ServiceName: "cgiad-test"}), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", line, err)
	}
	return entry
}

func TestLoggerOutput(t *testing.T) {
	log, buf := newBufferLogger("debug")
	log.Info("asset stored", "filename", "a.png")

	entry := decodeLine(t, buf)
	if entry["msg"] != "asset stored" {
		t.Errorf("unexpected msg %v", entry["msg"])
	}
	if entry["filename"] != "a.png" {
		t.Errorf("unexpected filename %v", entry["filename"])
	}
	if entry["service"] != "cgiad-test" {
		t.Errorf("unexpected service %v", entry["service"])
	}
	ts, _ := entry["time"].(string)
	if !strings.HasSuffix(ts, "Z") {
		t.Errorf("expected UTC timestamp, got %q", ts)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Output: &buf})
	log.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("expected text handler output, got %q", buf.String())
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logFn     func(*Logger)
		shouldLog bool
	}{
		{"info logs info", "info", func(l *Logger) { l.Info("x") }, true},
		{"info drops debug", "info", func(l *Logger) { l.Debug("x") }, false},
		{"debug logs debug", "debug", func(l *Logger) { l.Debug("x") }, true},
		{"warning alias", "warning", func(l *Logger) { l.Info("x") }, false},
		{"error drops warn", "error", func(l *Logger) { l.Warn("x") }, false},
		{"unknown means info", "loud", func(l *Logger) { l.Info("x") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := newBufferLogger(tt.level)
			tt.logFn(log)
			if got := buf.Len() > 0; got != tt.shouldLog {
				t.Errorf("expected shouldLog=%v, got %v", tt.shouldLog, got)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel(" DEBUG ") != slog.LevelDebug {
		t.Error("expected debug")
	}
	if ParseLevel("warn") != slog.LevelWarn {
		t.Error("expected warn")
	}
}

func TestFromContext(t *testing.T) {
	log, buf := newBufferLogger("info")

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithJobID(ctx, "job-1")
	ctx = ContextWithVideoID(ctx, "vid-1")
	log.FromContext(ctx).Info("step")

	entry := decodeLine(t, buf)
	for key, want := range map[string]string{"request_id": "req-1", "job_id": "job-1", "video_id": "vid-1"} {
		if entry[key] != want {
			t.Errorf("expected %s=%s, got %v", key, want, entry[key])
		}
	}
}

func TestFromContextWithoutValues(t *testing.T) {
	log, _ := newBufferLogger("info")
	if got := log.FromContext(context.Background()); got != log {
		t.Error("expected the same logger when the context carries nothing")
	}
}

func TestWithComponentAndError(t *testing.T) {
	log, buf := newBufferLogger("info")
	log.WithComponent("processor").WithError(errors.New("boom")).Info("x")

	entry := decodeLine(t, buf)
	if entry["component"] != "processor" {
		t.Errorf("unexpected component %v", entry["component"])
	}
	if entry["error"] != "boom" {
		t.Errorf("unexpected error %v", entry["error"])
	}
	if log.WithError(nil) != log {
		t.Error("WithError(nil) should return the receiver")
	}
}

func TestLogError(t *testing.T) {
	log, buf := newBufferLogger("info")

	log.LogError(context.Background(), "ignored", nil)
	if buf.Len() != 0 {
		t.Fatal("LogError with nil error should not log")
	}

	log.LogError(ContextWithJobID(context.Background(), "job-9"), "generation failed", errors.New("bad frame"))
	entry := decodeLine(t, buf)
	if entry["level"] != "ERROR" {
		t.Errorf("expected ERROR level, got %v", entry["level"])
	}
	if entry["job_id"] != "job-9" {
		t.Errorf("expected job id from context, got %v", entry["job_id"])
	}
	src, ok := entry["source"].(map[string]any)
	if !ok || !strings.HasSuffix(src["file"].(string), "logger_test.go") {
		t.Errorf("expected caller source, got %v", entry["source"])
	}
}
