package workers

import (
	"context"
	"sync"
)

// Workers runs a set of background workers and waits for all of them on
// shutdown.
type Workers struct {
	workers []Worker
}

// NewWorkers bundles the given workers. Order is preserved for startup.
func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Run launches every worker on its own goroutine and blocks until all of
// them have exited, which they do when ctx is cancelled.
func (w *Workers) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, worker := range w.workers {
		wg.Add(1)
		go func(worker Worker) {
			defer wg.Done()
			worker.Run(ctx)
		}(worker)
	}
	wg.Wait()
}
