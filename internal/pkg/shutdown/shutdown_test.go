package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cgiad/internal/pkg/logger"
)

func TestNewManagerDefaultTimeout(t *testing.T) {
	mgr := NewManager(logger.Discard(), 0)
	if mgr.timeout != 30*time.Second {
		t.Errorf("expected default 30s timeout, got %s", mgr.timeout)
	}
}

func TestShutdownRunsHandlersInReverseOrder(t *testing.T) {
	mgr := NewManager(logger.Discard(), 5*time.Second)

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}
	mgr.RegisterSimple("redis", record("redis"))
	mgr.RegisterSimple("worker-pool", record("worker-pool"))
	mgr.RegisterSimple("http-server", record("http-server"))

	mgr.Shutdown()

	want := []string{"http-server", "worker-pool", "redis"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}

	select {
	case <-mgr.Done():
	default:
		t.Error("expected Done to be closed after Shutdown")
	}
}

func TestShutdownContinuesAfterFailure(t *testing.T) {
	mgr := NewManager(logger.Discard(), 5*time.Second)

	var secondRan bool
	mgr.RegisterSimple("after", func() { secondRan = true })
	mgr.Register("failing", func(context.Context) error { return errors.New("close failed") })

	mgr.Shutdown()
	if !secondRan {
		t.Error("expected remaining handlers to run after a failure")
	}
}

func TestShutdownTimeout(t *testing.T) {
	mgr := NewManager(logger.Discard(), 50*time.Millisecond)
	mgr.Register("slow", func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})

	start := time.Now()
	mgr.Shutdown()
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("expected shutdown to give up after the timeout, took %s", elapsed)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	mgr := NewManager(logger.Discard(), time.Second)
	calls := 0
	mgr.RegisterSimple("once", func() { calls++ })

	mgr.Shutdown()
	mgr.Shutdown()
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}
}

func TestWaitReturnsOnContextCancel(t *testing.T) {
	mgr := NewManager(logger.Discard(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	returned := make(chan struct{})
	go func() {
		mgr.Wait(ctx)
		close(returned)
	}()
	cancel()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after context cancel")
	}
}
