// Path: internal/supervisor/supervisor.go

// Package supervisor runs the long-lived parts of watch mode under a
// suture supervisor so a crashed component is restarted with backoff.
package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"rank-sync/internal/logging"
)

// Restart policy of the root supervisor.
const (
	failureThreshold = 5.0
	failureDecay     = 30.0
	failureBackoff   = 15 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// New creates a root supervisor that logs its events through zerolog.
func New(name string) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook:        logEvent,
		FailureThreshold: failureThreshold,
		FailureDecay:     failureDecay,
		FailureBackoff:   failureBackoff,
		Timeout:          shutdownTimeout,
	})
}

func logEvent(e suture.Event) {
	ev := logging.Warn()
	if e.Type() == suture.EventTypeResume {
		ev = logging.Info()
	}
	ev.Fields(e.Map()).Msg(e.String())
}

// Watcher is a sync loop that runs until its context is done.
type Watcher interface {
	Watch(ctx context.Context, interval time.Duration) error
}

// WatchService adapts a Watcher to suture.Service.
type WatchService struct {
	watcher  Watcher
	interval time.Duration
}

// NewWatchService creates a supervised sync loop.
func NewWatchService(w Watcher, interval time.Duration) *WatchService {
	return &WatchService{watcher: w, interval: interval}
}

// Serve implements suture.Service. Cancellation is a clean stop.
func (s *WatchService) Serve(ctx context.Context) error {
	err := s.watcher.Watch(ctx, s.interval)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// String names the service in supervisor logs.
func (s *WatchService) String() string { return "sync-watcher" }
