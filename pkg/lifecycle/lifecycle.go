// Package lifecycle coordinates startup, shutdown, and tracked background
// work for long-running processes.
//
// Startup hooks run concurrently and the coordinator becomes ready once they
// all return. Shutdown hooks are started at registration time and are
// expected to block on Context().Done() before releasing their resources.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrShutdownTimeout is returned when hooks or tasks outlive the shutdown
// deadline.
var ErrShutdownTimeout = errors.New("shutdown timed out")

// Coordinator tracks hooks and background tasks for one process.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup  sync.WaitGroup
	shutdown sync.WaitGroup
	tasks    sync.WaitGroup

	ready atomic.Bool
}

// New returns a Coordinator whose context is cancelled by Shutdown.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Context is cancelled when shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

func (c *Coordinator) OnStartup(fn func()) {
	c.startup.Go(fn)
}

func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdown.Go(fn)
}

// Go runs fn in the background. Shutdown waits for it after the shutdown
// hooks have drained.
func (c *Coordinator) Go(fn func(ctx context.Context)) {
	c.tasks.Go(func() { fn(c.ctx) })
}

// Ready reports whether startup has completed and shutdown has not begun.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// WaitForStartup blocks on every startup hook, then marks the coordinator
// ready.
func (c *Coordinator) WaitForStartup() {
	c.startup.Wait()
	c.ready.Store(true)
}

// Shutdown cancels the context and waits up to timeout for shutdown hooks
// and background tasks.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.ready.Store(false)
	c.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.shutdown.Wait()
		c.tasks.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}
