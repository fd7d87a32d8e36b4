// Path: internal/scheduler/scheduler.go

// Package scheduler runs a finite task list on a bounded worker pool.
//
// Workers pull the next unclaimed task from a shared cursor, so a worker
// that finishes early picks up more of the backlog. Results come back in
// task order regardless of completion order, and a failing task never
// aborts the batch.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Result is the outcome of one task.
type Result[T, R any] struct {
	Task  T
	Value R
	Err   error
}

// Func runs one task.
type Func[T, R any] func(ctx context.Context, task T) (R, error)

// Run executes fn for every task with at most limit tasks in flight.
// A limit below 1 is treated as 1. Once ctx is done, remaining tasks are
// not started and report ctx.Err().
func Run[T, R any](ctx context.Context, tasks []T, limit int, fn Func[T, R]) []Result[T, R] {
	results := make([]Result[T, R], len(tasks))
	if len(tasks) == 0 {
		return results
	}

	workers := min(max(limit, 1), len(tasks))

	var (
		cursor atomic.Int64
		wg     sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(tasks) {
					return
				}
				results[i].Task = tasks[i]
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				results[i].Value, results[i].Err = call(ctx, tasks[i], fn)
			}
		}()
	}
	wg.Wait()

	return results
}

func call[T, R any](ctx context.Context, task T, fn Func[T, R]) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx, task)
}
