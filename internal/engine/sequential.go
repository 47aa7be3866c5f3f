package engine

import (
	"context"
	"fmt"

	"github.com/dbsmedya/sqlmirror/internal/workitem"
)

// Sequential executes items one at a time on a single connection, in builder
// order.
type Sequential struct {
	deps Deps
}

// NewSequential creates the sequential strategy.
func NewSequential(deps Deps) (*Sequential, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Sequential{deps: deps}, nil
}

// Execute runs every item, recording per-item failures without aborting the
// remaining items. Only a setup failure (no connection) is a strategy error.
func (s *Sequential) Execute(ctx context.Context, items []workitem.WorkItem) ([]workitem.Result, error) {
	log := s.deps.Log.WithPhase("sequential")

	db, err := s.deps.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	scr, err := s.deps.NewScripter(db)
	if err != nil {
		return nil, fmt.Errorf("failed to build scripter: %w", err)
	}

	results := make([]workitem.Result, 0, len(items))
	for _, item := range items {
		result := executeItem(ctx, scr, s.deps.OutputRoot, item)
		if !result.Succeeded {
			log.Errorw("Work item failed",
				"item", item.ID,
				"error", result.Err,
			)
		} else {
			log.Debugw("Work item completed",
				"item", item.ID,
				"objects", result.ObjectCount,
			)
		}
		results = append(results, result)
	}

	succeeded, failed := workitem.Summarize(results)
	log.Infow("Sequential execution completed",
		"items", len(items),
		"succeeded", succeeded,
		"failed", failed,
	)

	return results, nil
}
