// Package app builds the components shared by the API and worker processes
// from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"cgiad/internal/artifacts"
	"cgiad/internal/assets"
	"cgiad/internal/config"
	"cgiad/internal/events"
	"cgiad/internal/jobs"
	"cgiad/internal/pkg/logger"
	"cgiad/internal/pkg/shutdown"
	"cgiad/internal/repositories"
	"cgiad/internal/service"
	"cgiad/internal/storage"
	"cgiad/internal/transform"
	"cgiad/internal/worker/processor"
)

type Components struct {
	Assets      *assets.Store
	Artifacts   *artifacts.Store
	Transformer transform.Transformer
	Jobs        jobs.Store
	Queue       jobs.Queue
	Events      events.Publisher
	Processor   *processor.Processor
	Service     *service.Service

	// RDB and Pool are nil unless a backend needs them.
	RDB  *redis.Client
	Pool *pgxpool.Pool
}

// Build connects every backend selected by cfg. Each opened client is
// registered with mgr so it is closed on shutdown.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, mgr *shutdown.Manager) (*Components, error) {
	c := &Components{}

	uploads, err := storage.NewProvider(ctx, cfg.Uploads, cfg)
	if err != nil {
		return nil, fmt.Errorf("upload storage: %w", err)
	}
	outputs, err := storage.NewProvider(ctx, cfg.Outputs, cfg)
	if err != nil {
		return nil, fmt.Errorf("output storage: %w", err)
	}
	log.Info("storage providers initialized", "uploads", uploads.Provider(), "outputs", outputs.Provider())

	c.Assets = assets.New(uploads, DisplayRoot(cfg.Uploads))
	c.Artifacts, err = artifacts.New(outputs, artifacts.Options{
		WorkDir:       filepath.Join(cfg.WorkDir, "spool"),
		PublicBaseURL: cfg.PublicBaseURL,
		DisplayRoot:   DisplayRoot(cfg.Outputs),
	})
	if err != nil {
		return nil, err
	}

	c.Transformer, err = transform.New(cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("transform engine selected", "engine", c.Transformer.Engine())

	if cfg.UsesRedis() {
		log.Info("connecting to Redis", "addr", cfg.RedisAddr)
		c.RDB = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		mgr.Register("redis", func(ctx context.Context) error { return c.RDB.Close() })
		if err := c.RDB.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info("Redis connected")
	}

	switch cfg.JobStore {
	case "redis":
		c.Jobs = jobs.NewRedisStore(c.RDB, "", 0)
	case "postgres":
		log.Info("connecting to PostgreSQL")
		c.Pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		mgr.RegisterSimple("postgres", c.Pool.Close)
		if err := c.Pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		repo := repositories.NewJobRepository(c.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		c.Jobs = repo
		log.Info("PostgreSQL connected")
	default:
		c.Jobs = jobs.NewMemoryStore()
	}

	if cfg.QueueBackend == "redis" {
		c.Queue = jobs.NewRedisQueue(c.RDB, cfg.QueueName)
	} else {
		c.Queue = jobs.NewMemoryQueue(0)
	}

	if cfg.EventsBackend == "kafka" {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaJobTopic)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		mgr.Register("kafka", func(context.Context) error { return kp.Close() })
		c.Events = kp
		log.Info("Kafka producer ready", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaJobTopic)
	} else {
		c.Events = events.NewLogPublisher(log)
	}

	c.Processor = processor.New(processor.Deps{
		Assets:      c.Assets,
		Artifacts:   c.Artifacts,
		Transformer: c.Transformer,
		Jobs:        c.Jobs,
		Events:      c.Events,
		WorkDir:     cfg.WorkDir,
		Log:         log,
	})
	c.Service = service.New(service.Deps{
		Assets:                 c.Assets,
		Artifacts:              c.Artifacts,
		Processor:              c.Processor,
		Jobs:                   c.Jobs,
		Queue:                  c.Queue,
		Log:                    log,
		DefaultDurationSeconds: cfg.DefaultDurationSeconds,
	})
	return c, nil
}

// DisplayRoot is the prefix shown to clients for objects in a store.
func DisplayRoot(sc config.StorageConfig) string {
	switch sc.Provider {
	case "", "localfs":
		return filepath.Base(filepath.Clean(sc.LocalRoot))
	case "s3":
		return strings.Trim(sc.S3Prefix, "/")
	default:
		return ""
	}
}
