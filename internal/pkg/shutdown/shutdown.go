// Package shutdown runs registered cleanup handlers when the process is asked
// to stop.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cgiad/internal/pkg/logger"
)

// Manager coordinates graceful shutdown.
type Manager struct {
	log      *logger.Logger
	timeout  time.Duration
	mu       sync.Mutex
	handlers []Handler
	once     sync.Once
	done     chan struct{}
}

// Handler is a named cleanup step.
type Handler struct {
	Name    string
	Cleanup func(ctx context.Context) error
}

// NewManager returns a Manager; a zero timeout means 30s.
func NewManager(log *logger.Logger, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manager{log: log, timeout: timeout, done: make(chan struct{})}
}

func (m *Manager) Register(name string, cleanup func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, Handler{Name: name, Cleanup: cleanup})
	m.log.Debug("registered shutdown handler", "name", name)
}

func (m *Manager) RegisterSimple(name string, cleanup func()) {
	m.Register(name, func(context.Context) error {
		cleanup()
		return nil
	})
}

// Wait blocks until SIGINT, SIGTERM or SIGHUP, or until ctx is done, then
// runs Shutdown.
func (m *Manager) Wait(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		m.log.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		m.log.Info("context canceled, initiating shutdown")
	}
	m.Shutdown()
}

// Shutdown runs every handler, last registered first, within the timeout.
// Handlers run sequentially: the HTTP server must drain before the worker
// pool and stores it depends on are closed.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		defer close(m.done)

		m.mu.Lock()
		handlers := make([]Handler, len(m.handlers))
		copy(handlers, m.handlers)
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		m.log.Info("starting graceful shutdown", "handlers", len(handlers), "timeout", m.timeout.String())

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			for i := len(handlers) - 1; i >= 0; i-- {
				h := handlers[i]
				start := time.Now()
				if err := h.Cleanup(ctx); err != nil {
					m.log.Error("shutdown handler failed",
						"name", h.Name,
						"error", err.Error(),
						"duration_ms", time.Since(start).Milliseconds(),
					)
					continue
				}
				m.log.Debug("shutdown handler completed",
					"name", h.Name,
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
		}()

		select {
		case <-finished:
			m.log.Info("graceful shutdown completed")
		case <-ctx.Done():
			m.log.Warn("shutdown timeout exceeded, forcing exit")
		}
	})
}

// Done is closed once Shutdown has returned.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}
