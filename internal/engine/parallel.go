package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dbsmedya/sqlmirror/internal/config"
	"github.com/dbsmedya/sqlmirror/internal/workitem"
)

// Parallel executes items on a fixed pool of workers. Each worker owns one
// connection for its entire lifetime and drains the shared queue until empty.
type Parallel struct {
	deps         Deps
	workers      int
	pollInterval time.Duration
}

// NewParallel creates the parallel strategy with the given worker count
// (default 5, capped at config.MaxWorkers).
func NewParallel(deps Deps, workers int) (*Parallel, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 5
	}
	if workers > config.MaxWorkers {
		workers = config.MaxWorkers
	}
	return &Parallel{
		deps:         deps,
		workers:      workers,
		pollInterval: 5 * time.Second,
	}, nil
}

// Execute runs all items to completion. There is no cross-item ordering
// guarantee and none is needed: every item owns a disjoint output path.
// A worker whose setup fails emits one synthetic failure result and
// terminates; the other workers are unaffected. Execute returns an error
// only when every worker failed setup and nothing ran, which is the signal
// the caller uses to fall back to the sequential strategy.
func (p *Parallel) Execute(ctx context.Context, items []workitem.WorkItem) ([]workitem.Result, error) {
	log := p.deps.Log.WithPhase("parallel")

	workers := p.workers
	if workers > len(items) && len(items) > 0 {
		workers = len(items)
	}

	queue := newItemQueue(items)
	resultCh := make(chan workitem.Result, len(items)+workers)
	var progress atomic.Int64
	var setupFailures atomic.Int64

	var wg sync.WaitGroup
	for id := 1; id <= workers; id++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.runWorker(ctx, workerID, queue, resultCh, &progress, &setupFailures)
		}(id)
	}

	// The coordinator only sleeps on the progress ticker and joins the
	// workers; it never touches the queue.
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()
		start := time.Now()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				completed := progress.Load()
				elapsed := time.Since(start).Seconds()
				rate := float64(completed) / elapsed
				log.Infow("Progress",
					"completed", completed,
					"total", len(items),
					"items_per_second", fmt.Sprintf("%.1f", rate),
				)
			}
		}
	}()

	wg.Wait()
	close(done)
	close(resultCh)

	results := make([]workitem.Result, 0, len(items))
	for r := range resultCh {
		results = append(results, r)
	}

	if int(setupFailures.Load()) == workers && progress.Load() == 0 {
		return results, fmt.Errorf("all %d workers failed setup", workers)
	}

	succeeded, failed := workitem.Summarize(results)
	log.Infow("Parallel execution completed",
		"items", len(items),
		"workers", workers,
		"succeeded", succeeded,
		"failed", failed,
	)

	return results, nil
}

// runWorker opens the worker's own connection and drains the queue.
func (p *Parallel) runWorker(
	ctx context.Context,
	workerID int,
	queue *itemQueue,
	resultCh chan<- workitem.Result,
	progress *atomic.Int64,
	setupFailures *atomic.Int64,
) {
	log := p.deps.Log.WithWorker(workerID)

	db, err := p.deps.Connect(ctx)
	if err != nil {
		setupFailures.Add(1)
		log.Errorw("Worker setup failed", "error", err)
		resultCh <- workitem.Result{
			WorkItemID: fmt.Sprintf("worker-%d-setup", workerID),
			Succeeded:  false,
			Err:        fmt.Sprintf("worker %d could not connect: %v", workerID, err),
		}
		return
	}
	defer db.Close()

	scr, err := p.deps.NewScripter(db)
	if err != nil {
		setupFailures.Add(1)
		log.Errorw("Worker setup failed", "error", err)
		resultCh <- workitem.Result{
			WorkItemID: fmt.Sprintf("worker-%d-setup", workerID),
			Succeeded:  false,
			Err:        fmt.Sprintf("worker %d could not build scripter: %v", workerID, err),
		}
		return
	}

	for {
		item, ok := queue.tryNext()
		if !ok {
			return
		}

		result := executeItem(ctx, scr, p.deps.OutputRoot, item)
		if !result.Succeeded {
			log.Errorw("Work item failed",
				"item", item.ID,
				"error", result.Err,
			)
		}
		resultCh <- result
		progress.Add(1)
	}
}
