package engine

import (
	"context"

	"github.com/dbsmedya/sqlmirror/internal/config"
	"github.com/dbsmedya/sqlmirror/internal/workitem"
)

// Run executes the items with the configured strategy. When the parallel
// strategy fails as a whole (not per-item), the run is retried sequentially
// from scratch: partial parallel progress is discarded, which is safe because
// path assignment is deterministic and items overwrite their own files.
func Run(ctx context.Context, deps Deps, items []workitem.WorkItem, par config.ParallelConfig) ([]workitem.Result, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	if par.Enabled && par.Workers != 1 && len(items) > 1 {
		parallel, err := NewParallel(deps, par.Workers)
		if err != nil {
			return nil, err
		}
		results, err := parallel.Execute(ctx, items)
		if err == nil {
			return results, nil
		}
		deps.Log.Warnw("Parallel execution failed - falling back to sequential",
			"error", err,
		)
	}

	sequential, err := NewSequential(deps)
	if err != nil {
		return nil, err
	}
	return sequential.Execute(ctx, items)
}
