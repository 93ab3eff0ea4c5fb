package lifecycle_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/moodmap/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()

	var hooks atomic.Int32
	for range 3 {
		lc.OnStartup(func() { hooks.Add(1) })
	}

	if lc.Ready() {
		t.Error("ready before WaitForStartup")
	}

	lc.WaitForStartup()
	if got := hooks.Load(); got != 3 {
		t.Errorf("startup hooks ran %d times, want 3", got)
	}
	if !lc.Ready() {
		t.Error("not ready after WaitForStartup")
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if lc.Ready() {
		t.Error("still ready after Shutdown")
	}
}

func TestShutdownDrains(t *testing.T) {
	lc := lifecycle.New()

	var hook, task atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		hook.Store(true)
	})
	lc.Go(func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		task.Store(true)
	})
	lc.WaitForStartup()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !hook.Load() {
		t.Error("shutdown hook did not run")
	}
	if !task.Load() {
		t.Error("Shutdown returned before the background task finished")
	}
	if lc.Context().Err() == nil {
		t.Error("context not cancelled after Shutdown")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		time.Sleep(500 * time.Millisecond)
	})
	lc.WaitForStartup()

	err := lc.Shutdown(50 * time.Millisecond)
	if !errors.Is(err, lifecycle.ErrShutdownTimeout) {
		t.Errorf("Shutdown() error = %v, want ErrShutdownTimeout", err)
	}
}
