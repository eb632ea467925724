package worker

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool runs a fixed number of Run loops against one queue.
type Pool struct {
	deps Deps
	size int

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewPool(d Deps, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{deps: d.withDefaults(), size: size}
}

// Start launches the loops; it is a no-op when already started.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.group != nil {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)

	log := p.deps.Log.WithComponent("worker")
	for i := 0; i < p.size; i++ {
		p.group.Go(func() error {
			err := Run(ctx, p.deps)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	log.Info("worker pool started", "workers", p.size)
}

// Stop cancels the loops and waits for in-flight jobs, or for ctx to end.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	g, cancel := p.group, p.cancel
	p.mu.Unlock()
	if g == nil {
		return nil
	}

	cancel()
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
