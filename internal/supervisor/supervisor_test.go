package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingWatcher struct {
	calls    atomic.Int32
	interval atomic.Int64
}

func (w *countingWatcher) Watch(ctx context.Context, interval time.Duration) error {
	w.calls.Add(1)
	w.interval.Store(int64(interval))
	<-ctx.Done()
	return ctx.Err()
}

func TestWatchServiceStopsCleanly(t *testing.T) {
	w := &countingWatcher{}
	svc := NewWatchService(w, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve err = %v, want nil on cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
	if time.Duration(w.interval.Load()) != time.Minute {
		t.Errorf("interval = %v", time.Duration(w.interval.Load()))
	}
}

type failingWatcher struct{}

func (failingWatcher) Watch(context.Context, time.Duration) error { return errors.New("boom") }

func TestWatchServicePropagatesFailure(t *testing.T) {
	if err := NewWatchService(failingWatcher{}, time.Second).Serve(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestSupervisorRunsWatchService(t *testing.T) {
	w := &countingWatcher{}
	sup := New("test")
	sup.Add(NewWatchService(w, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.After(5 * time.Second)
	for w.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("watcher never started")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-errCh:
	case <-time.After(15 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}
