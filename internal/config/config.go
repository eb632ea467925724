// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StorageConfig selects and configures one store's provider.
type StorageConfig struct {
	// Provider is localfs, gdrive or s3.
	Provider string
	// LocalRoot is the directory used by localfs.
	LocalRoot string
	// GDriveFolderID is the parent folder for gdrive objects.
	GDriveFolderID string
	// S3Prefix is prepended to every key when Provider is s3.
	S3Prefix string
}

type GDriveConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

type S3Config struct {
	Bucket       string
	Region       string
	Profile      string
	UsePathStyle bool
}

type Config struct {
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration
	MaxUploadBytes   int64

	LogLevel  string
	LogFormat string
	LogSource bool

	Uploads StorageConfig
	Outputs StorageConfig
	GDrive  GDriveConfig
	S3      S3Config
	WorkDir string

	PublicBaseURL      string
	CORSAllowedOrigins []string

	TransformEngine        string
	TransformSteps         int
	TransformStepDelay     time.Duration
	RendererBaseURL        string
	FFmpegBin              string
	DefaultDurationSeconds int

	JobStore          string
	QueueBackend      string
	QueueName         string
	RedisAddr         string
	DatabaseURL       string
	WorkerConcurrency int

	EventsBackend string
	KafkaBrokers  []string
	KafkaJobTopic string
}

// Load reads .env (when present) and then the process environment, applying
// defaults, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from an arbitrary lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env{get: getenv}

	cfg := &Config{
		HTTPPort:         e.str("HTTP_PORT", "8000"),
		HTTPReadTimeout:  e.duration("HTTP_READ_TIMEOUT", 30*time.Second),
		HTTPWriteTimeout: e.duration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		HTTPIdleTimeout:  e.duration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout:  e.duration("SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxUploadBytes:   int64(e.int("MAX_UPLOAD_BYTES", 512<<20)),

		LogLevel:  e.str("LOG_LEVEL", "info"),
		LogFormat: e.str("LOG_FORMAT", "json"),
		LogSource: e.bool("LOG_SOURCE", false),

		Uploads: StorageConfig{
			Provider:       strings.ToLower(e.str("UPLOAD_STORAGE_PROVIDER", "localfs")),
			LocalRoot:      e.str("UPLOAD_DIR", "uploads"),
			GDriveFolderID: e.str("GDRIVE_UPLOAD_FOLDER_ID", ""),
			S3Prefix:       e.str("S3_UPLOAD_PREFIX", "uploads/"),
		},
		Outputs: StorageConfig{
			Provider:       strings.ToLower(e.str("OUTPUT_STORAGE_PROVIDER", "localfs")),
			LocalRoot:      e.str("OUTPUT_DIR", "outputs"),
			GDriveFolderID: e.str("GDRIVE_OUTPUT_FOLDER_ID", ""),
			S3Prefix:       e.str("S3_OUTPUT_PREFIX", "outputs/"),
		},
		GDrive: GDriveConfig{
			ClientID:     e.str("GDRIVE_CLIENT_ID", ""),
			ClientSecret: e.str("GDRIVE_CLIENT_SECRET", ""),
			RefreshToken: e.str("GDRIVE_REFRESH_TOKEN", ""),
		},
		S3: S3Config{
			Bucket:       e.str("S3_BUCKET", ""),
			Region:       e.str("S3_REGION", ""),
			Profile:      e.str("S3_PROFILE", ""),
			UsePathStyle: e.bool("S3_USE_PATH_STYLE", false),
		},
		WorkDir: e.str("WORK_DIR", filepath.Join(os.TempDir(), "cgiad")),

		PublicBaseURL:      strings.TrimRight(e.str("PUBLIC_BASE_URL", ""), "/"),
		CORSAllowedOrigins: e.csv("CORS_ALLOWED_ORIGINS", []string{"*"}),

		TransformEngine:        strings.ToLower(e.str("TRANSFORM_ENGINE", "simulated")),
		TransformSteps:         e.int("TRANSFORM_STEPS", 10),
		TransformStepDelay:     e.duration("TRANSFORM_STEP_DELAY", 500*time.Millisecond),
		RendererBaseURL:        strings.TrimRight(e.str("RENDERER_HTTP_BASEURL", ""), "/"),
		FFmpegBin:              e.str("FFMPEG_BIN", "ffmpeg"),
		DefaultDurationSeconds: e.int("DEFAULT_DURATION_SECONDS", 5),

		JobStore:          strings.ToLower(e.str("JOB_STORE", "memory")),
		QueueBackend:      strings.ToLower(e.str("QUEUE_BACKEND", "memory")),
		QueueName:         e.str("JOB_QUEUE_NAME", "cgiad:jobs"),
		RedisAddr:         e.str("REDIS_ADDR", ""),
		DatabaseURL:       e.str("DATABASE_URL", ""),
		WorkerConcurrency: e.int("WORKER_CONCURRENCY", 2),

		EventsBackend: strings.ToLower(e.str("EVENTS_BACKEND", "log")),
		KafkaBrokers:  e.csv("KAFKA_BROKERS", nil),
		KafkaJobTopic: e.str("KAFKA_JOB_EVENTS_TOPIC", "cgiad.job-events"),
	}

	if len(e.errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(e.errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot work at runtime.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	for name, sc := range map[string]StorageConfig{"UPLOAD": c.Uploads, "OUTPUT": c.Outputs} {
		switch sc.Provider {
		case "localfs":
			if sc.LocalRoot == "" {
				add("%s_DIR is required for localfs", name)
			}
		case "gdrive":
			if c.GDrive.ClientID == "" || c.GDrive.ClientSecret == "" || c.GDrive.RefreshToken == "" {
				add("%s_STORAGE_PROVIDER=gdrive requires GDRIVE_CLIENT_ID, GDRIVE_CLIENT_SECRET and GDRIVE_REFRESH_TOKEN", name)
			}
		case "s3":
			if c.S3.Bucket == "" {
				add("%s_STORAGE_PROVIDER=s3 requires S3_BUCKET", name)
			}
		default:
			add("unknown %s_STORAGE_PROVIDER %q", name, sc.Provider)
		}
	}

	switch c.TransformEngine {
	case "simulated", "ffmpeg":
	case "http":
		if c.RendererBaseURL == "" {
			add("TRANSFORM_ENGINE=http requires RENDERER_HTTP_BASEURL")
		}
	default:
		add("unknown TRANSFORM_ENGINE %q", c.TransformEngine)
	}
	if c.TransformSteps <= 0 {
		add("TRANSFORM_STEPS must be positive")
	}
	if c.TransformStepDelay < 0 {
		add("TRANSFORM_STEP_DELAY must not be negative")
	}
	if c.DefaultDurationSeconds <= 0 {
		add("DEFAULT_DURATION_SECONDS must be positive")
	}

	switch c.JobStore {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			add("JOB_STORE=redis requires REDIS_ADDR")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			add("JOB_STORE=postgres requires DATABASE_URL")
		}
	default:
		add("unknown JOB_STORE %q", c.JobStore)
	}

	switch c.QueueBackend {
	case "memory":
		if c.WorkerConcurrency == 0 {
			add("QUEUE_BACKEND=memory requires WORKER_CONCURRENCY > 0")
		}
	case "redis":
		if c.RedisAddr == "" {
			add("QUEUE_BACKEND=redis requires REDIS_ADDR")
		}
		if c.JobStore == "memory" {
			add("QUEUE_BACKEND=redis needs a shared JOB_STORE (redis or postgres)")
		}
	default:
		add("unknown QUEUE_BACKEND %q", c.QueueBackend)
	}
	if c.WorkerConcurrency < 0 {
		add("WORKER_CONCURRENCY must not be negative")
	}

	switch c.EventsBackend {
	case "log":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			add("EVENTS_BACKEND=kafka requires KAFKA_BROKERS")
		}
	default:
		add("unknown EVENTS_BACKEND %q", c.EventsBackend)
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// UsesRedis reports whether any backend needs a Redis client.
func (c *Config) UsesRedis() bool {
	return c.JobStore == "redis" || c.QueueBackend == "redis"
}

type env struct {
	get  func(string) string
	errs []string
}

func (e *env) str(key, def string) string {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	return v
}

func (e *env) int(key string, def int) int {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (e *env) bool(key string, def bool) bool {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (e *env) csv(key string, def []string) []string {
	raw := strings.TrimSpace(e.get(key))
	if raw == "" {
		return def
	}
	out := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
