package pagination

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Task processes the item at index i. Tasks record their own results.
type Task func(ctx context.Context, i int)

// Executor runs n tasks with at most limit running at once and returns only
// after every started task has returned.
//
// Run returns a non-nil error only when the context stopped some tasks from
// starting.
type Executor interface {
	Run(ctx context.Context, n, limit int, task Task) error
}

// WorkerPool runs tasks on a fixed pool of min(limit, n) goroutines that drain
// a shared index queue.
type WorkerPool struct{}

// Run implements Executor.
func (WorkerPool) Run(ctx context.Context, n, limit int, task Task) error {
	if n <= 0 {
		return nil
	}
	if limit <= 0 {
		limit = 1
	}

	queue := make(chan int, n)
	for i := 0; i < n; i++ {
		queue <- i
	}
	close(queue)

	var skipped atomic.Bool
	var wg sync.WaitGroup
	for workerID := 0; workerID < min(limit, n); workerID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			processed := 0

			for i := range queue {
				if ctx.Err() != nil {
					skipped.Store(true)
					continue
				}
				task(ctx, i)
				processed++
			}

			log.Debug().
				Int("worker_id", workerID).
				Int("tasks_processed", processed).
				Msg("Worker completed")
		}()
	}
	wg.Wait()

	if skipped.Load() {
		return ctx.Err()
	}
	return nil
}

// Gather starts one goroutine per task and admits at most limit of them at a
// time through a weighted semaphore.
type Gather struct{}

// Run implements Executor.
func (Gather) Run(ctx context.Context, n, limit int, task Task) error {
	if n <= 0 {
		return nil
	}
	if limit <= 0 {
		limit = 1
	}

	sem := semaphore.NewWeighted(int64(limit))
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			task(ctx, i)
			return nil
		})
	}
	return g.Wait()
}
