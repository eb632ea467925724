package main

import (
	"context"

	"cgiad/internal/app"
	"cgiad/internal/config"
	"cgiad/internal/pkg/logger"
	"cgiad/internal/pkg/shutdown"
	"cgiad/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault().LogFatal("invalid configuration", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "cgiad-worker",
		AddSource:   cfg.LogSource,
	})

	if cfg.QueueBackend != "redis" {
		log.LogFatal("standalone worker needs QUEUE_BACKEND=redis", nil, "queue_backend", cfg.QueueBackend)
	}

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, cfg.ShutdownTimeout)

	c, err := app.Build(ctx, cfg, log, shutdownMgr)
	if err != nil {
		shutdownMgr.Shutdown()
		log.LogFatal("failed to initialize components", err)
	}

	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	pool := worker.NewPool(worker.Deps{
		Queue:     c.Queue,
		Processor: c.Processor,
		Log:       log,
	}, concurrency)
	pool.Start(ctx)
	shutdownMgr.Register("worker-pool", pool.Stop)

	log.Info("worker started", "queue", cfg.QueueName, "workers", concurrency)
	shutdownMgr.Wait(ctx)
}
