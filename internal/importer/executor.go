package importer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"
)

// BatchExecutor executes pre-split SQL batches against one connection.
// Implementations are single-goroutine safe only.
type BatchExecutor interface {
	ExecBatches(ctx context.Context, batches []string) error
}

// SQLExecutor runs batches over database/sql with a per-batch command timeout.
type SQLExecutor struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLExecutor creates a batch executor. A zero timeout disables the
// per-batch deadline.
func NewSQLExecutor(db *sql.DB, timeout time.Duration) *SQLExecutor {
	return &SQLExecutor{db: db, timeout: timeout}
}

// ExecBatches runs each batch in order, stopping at the first failure. A
// partially applied script is reported as-is: mid-script retry is not safe
// without knowing which batches succeeded.
func (e *SQLExecutor) ExecBatches(ctx context.Context, batches []string) error {
	for i, batch := range batches {
		if err := e.execOne(ctx, batch); err != nil {
			return fmt.Errorf("batch %d of %d failed: %w", i+1, len(batches), err)
		}
	}
	return nil
}

func (e *SQLExecutor) execOne(ctx context.Context, batch string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	_, err := e.db.ExecContext(ctx, batch)
	return err
}

// ApplyScript reads a script file, splits it into batches, and executes them.
func ApplyScript(ctx context.Context, exec BatchExecutor, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	batches := SplitBatches(string(data))
	if len(batches) == 0 {
		return nil
	}
	return exec.ExecBatches(ctx, batches)
}
