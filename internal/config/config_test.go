package config

import (
	"strings"
	"testing"
	"time"
)

func lookup(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(lookup(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != "8000" {
		t.Errorf("expected port 8000, got %s", cfg.HTTPPort)
	}
	if cfg.Uploads.Provider != "localfs" || cfg.Uploads.LocalRoot != "uploads" {
		t.Errorf("unexpected uploads config %+v", cfg.Uploads)
	}
	if cfg.Outputs.Provider != "localfs" || cfg.Outputs.LocalRoot != "outputs" {
		t.Errorf("unexpected outputs config %+v", cfg.Outputs)
	}
	if cfg.TransformEngine != "simulated" || cfg.TransformSteps != 10 || cfg.TransformStepDelay != 500*time.Millisecond {
		t.Errorf("unexpected transform config %s/%d/%s", cfg.TransformEngine, cfg.TransformSteps, cfg.TransformStepDelay)
	}
	if cfg.DefaultDurationSeconds != 5 {
		t.Errorf("expected default duration 5, got %d", cfg.DefaultDurationSeconds)
	}
	if cfg.JobStore != "memory" || cfg.QueueBackend != "memory" || cfg.EventsBackend != "log" {
		t.Errorf("unexpected backends %s/%s/%s", cfg.JobStore, cfg.QueueBackend, cfg.EventsBackend)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard CORS, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.UsesRedis() {
		t.Error("default config should not need redis")
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"HTTP_PORT":            "9000",
		"OUTPUT_DIR":           "/srv/videos",
		"TRANSFORM_STEP_DELAY": "0s",
		"JOB_STORE":            "Redis",
		"QUEUE_BACKEND":        "redis",
		"REDIS_ADDR":           "localhost:6379",
		"KAFKA_BROKERS":        "k1:9092, k2:9092,",
		"EVENTS_BACKEND":       "kafka",
		"PUBLIC_BASE_URL":      "https://cdn.example.com/",
		"CORS_ALLOWED_ORIGINS": "http://localhost:5173",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != "9000" || cfg.Outputs.LocalRoot != "/srv/videos" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.TransformStepDelay != 0 {
		t.Errorf("expected zero step delay, got %s", cfg.TransformStepDelay)
	}
	if cfg.JobStore != "redis" {
		t.Errorf("expected lower-cased job store, got %s", cfg.JobStore)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.PublicBaseURL != "https://cdn.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.PublicBaseURL)
	}
	if !cfg.UsesRedis() {
		t.Error("expected UsesRedis")
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad integer", map[string]string{"TRANSFORM_STEPS": "ten"}, "TRANSFORM_STEPS: invalid integer"},
		{"bad duration", map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, "SHUTDOWN_TIMEOUT: invalid duration"},
		{"bad bool", map[string]string{"LOG_SOURCE": "maybe"}, "LOG_SOURCE: invalid boolean"},
		{"zero steps", map[string]string{"TRANSFORM_STEPS": "0"}, "TRANSFORM_STEPS must be positive"},
		{"zero duration", map[string]string{"DEFAULT_DURATION_SECONDS": "0"}, "DEFAULT_DURATION_SECONDS must be positive"},
		{"unknown provider", map[string]string{"OUTPUT_STORAGE_PROVIDER": "ftp"}, `unknown OUTPUT_STORAGE_PROVIDER "ftp"`},
		{"gdrive without credentials", map[string]string{"OUTPUT_STORAGE_PROVIDER": "gdrive"}, "requires GDRIVE_CLIENT_ID"},
		{"s3 without bucket", map[string]string{"UPLOAD_STORAGE_PROVIDER": "s3"}, "requires S3_BUCKET"},
		{"http engine without url", map[string]string{"TRANSFORM_ENGINE": "http"}, "requires RENDERER_HTTP_BASEURL"},
		{"redis store without addr", map[string]string{"JOB_STORE": "redis"}, "JOB_STORE=redis requires REDIS_ADDR"},
		{"postgres without url", map[string]string{"JOB_STORE": "postgres"}, "requires DATABASE_URL"},
		{"redis queue with memory store", map[string]string{"QUEUE_BACKEND": "redis", "REDIS_ADDR": "r:6379"}, "needs a shared JOB_STORE"},
		{"kafka without brokers", map[string]string{"EVENTS_BACKEND": "kafka"}, "requires KAFKA_BROKERS"},
		{"memory queue without workers", map[string]string{"WORKER_CONCURRENCY": "0"}, "QUEUE_BACKEND=memory requires WORKER_CONCURRENCY > 0"},
		{"negative workers", map[string]string{"WORKER_CONCURRENCY": "-1"}, "WORKER_CONCURRENCY must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookup(tt.env))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}
