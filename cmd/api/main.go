package main

import (
	"context"
	"net/http"
	"time"

	"cgiad/internal/app"
	"cgiad/internal/config"
	"cgiad/internal/httpapi"
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
		ServiceName: "cgiad-api",
		AddSource:   cfg.LogSource,
	})
	log.Info("starting CGI Ad Generator API", "version", "0.1.0")

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, cfg.ShutdownTimeout)

	c, err := app.Build(ctx, cfg, log, shutdownMgr)
	if err != nil {
		shutdownMgr.Shutdown()
		log.LogFatal("failed to initialize components", err)
	}

	// In-process workers drain the job queue unless a separate worker does.
	if cfg.WorkerConcurrency > 0 {
		pool := worker.NewPool(worker.Deps{
			Queue:     c.Queue,
			Processor: c.Processor,
			Log:       log,
		}, cfg.WorkerConcurrency)
		pool.Start(ctx)
		shutdownMgr.Register("worker-pool", pool.Stop)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Service:            c.Service,
		Log:                log,
		Pool:               c.Pool,
		RDB:                c.RDB,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxUploadBytes:     cfg.MaxUploadBytes,
	})

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
			"port", cfg.HTTPPort,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait(ctx)
}
