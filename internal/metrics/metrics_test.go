package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRegistered(t *testing.T) {
	before := testutil.ToFloat64(FetchAttempts.WithLabelValues("success"))
	FetchAttempts.WithLabelValues("success").Inc()
	if got := testutil.ToFloat64(FetchAttempts.WithLabelValues("success")); got != before+1 {
		t.Errorf("fetch attempts = %v, want %v", got, before+1)
	}

	Tasks.WithLabelValues("failed").Inc()
	if n := testutil.CollectAndCount(Tasks); n < 1 {
		t.Errorf("tasks series = %d, want at least 1", n)
	}

	TasksInFlight.Set(2)
	if got := testutil.ToFloat64(TasksInFlight); got != 2 {
		t.Errorf("in flight = %v", got)
	}
	TasksInFlight.Set(0)
}
