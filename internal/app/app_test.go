package app

import (
	"context"
	"path/filepath"
	"testing"

	"cgiad/internal/config"
	"cgiad/internal/events"
	"cgiad/internal/jobs"
	"cgiad/internal/pkg/logger"
	"cgiad/internal/pkg/shutdown"
)

func TestDisplayRoot(t *testing.T) {
	tests := []struct {
		sc   config.StorageConfig
		want string
	}{
		{config.StorageConfig{Provider: "localfs", LocalRoot: "uploads"}, "uploads"},
		{config.StorageConfig{Provider: "localfs", LocalRoot: "/data/outputs/"}, "outputs"},
		{config.StorageConfig{Provider: "s3", S3Prefix: "outputs/"}, "outputs"},
		{config.StorageConfig{Provider: "gdrive"}, ""},
	}
	for _, tt := range tests {
		if got := DisplayRoot(tt.sc); got != tt.want {
			t.Errorf("DisplayRoot(%+v) = %q, want %q", tt.sc, got, tt.want)
		}
	}
}

func TestBuildInMemory(t *testing.T) {
	dir := t.TempDir()
	env := map[string]string{
		"UPLOAD_DIR":           filepath.Join(dir, "uploads"),
		"OUTPUT_DIR":           filepath.Join(dir, "outputs"),
		"WORK_DIR":             filepath.Join(dir, "work"),
		"TRANSFORM_STEP_DELAY": "0s",
	}
	cfg, err := config.FromEnv(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	log := logger.Discard()
	c, err := Build(context.Background(), cfg, log, shutdown.NewManager(log, 0))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := c.Jobs.(*jobs.MemoryStore); !ok {
		t.Errorf("expected memory job store, got %T", c.Jobs)
	}
	if _, ok := c.Queue.(*jobs.MemoryQueue); !ok {
		t.Errorf("expected memory queue, got %T", c.Queue)
	}
	if _, ok := c.Events.(*events.LogPublisher); !ok {
		t.Errorf("expected log publisher, got %T", c.Events)
	}
	if c.RDB != nil || c.Pool != nil {
		t.Errorf("no external clients expected")
	}
	if c.Transformer.Engine() != "simulated" {
		t.Errorf("unexpected engine %s", c.Transformer.Engine())
	}
	if got := c.Service.Providers(); got["uploads"] != "localfs" || got["outputs"] != "localfs" {
		t.Errorf("unexpected providers %v", got)
	}
}
