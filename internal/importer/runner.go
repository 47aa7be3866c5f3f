package importer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dbsmedya/sqlmirror/internal/config"
	"github.com/dbsmedya/sqlmirror/internal/logger"
)

// Summary aggregates one import run. FkValidationFailures are counted apart
// from script failures but both decide the exit status.
type Summary struct {
	ScriptsApplied       int
	ScriptsFailed        int
	ResolverPasses       int
	FkSuspended          int
	FkValidationFailures int
	Duration             time.Duration
	Errors               []string
}

// FailureCount returns the total failures deciding the process exit status.
func (s *Summary) FailureCount() int {
	return s.ScriptsFailed + s.FkValidationFailures
}

// Runner applies an exported script tree to the target database in phase
// order: ordinary phases first, then the dependency resolver over the
// retry-eligible set, security policies strictly after it, and finally the
// data phase inside the foreign-key guard.
type Runner struct {
	db   *sql.DB
	exec BatchExecutor
	cfg  *config.ImportConfig
	log  *logger.Logger

	// StopRequested is polled between phases. A started phase always runs to
	// completion; when it reports true no further phase starts.
	StopRequested func() bool
}

// NewRunner creates an import runner over one target connection.
func NewRunner(db *sql.DB, exec BatchExecutor, cfg *config.ImportConfig, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Runner{db: db, exec: exec, cfg: cfg, log: log}
}

// Run executes the whole import. It returns an error only when the run is
// aborted (a non-retry-eligible script fails without continue-on-error, or
// the guard cannot enumerate constraints); per-script failures otherwise
// accumulate in the summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	retryKinds := r.cfg.DependencyRetry.Kinds
	if !r.cfg.DependencyRetry.Enabled {
		retryKinds = nil
	}

	set, err := ScanScripts(r.cfg.InputDir, retryKinds)
	if err != nil {
		return nil, err
	}
	r.log.Infow("Import scripts discovered",
		"total", set.Total(),
		"ordinary", len(set.Ordinary),
		"retry_eligible", len(set.RetryEligible),
		"security_policies", len(set.SecurityPolicies),
		"data", len(set.Data),
	)

	phases := []func() error{
		func() error { return r.applyOrdinary(ctx, set.Ordinary, summary) },
		func() error { r.resolveRetryEligible(ctx, set.RetryEligible, summary); return nil },
		// Security policy predicates depend on functions already existing,
		// so these run only after the retry-eligible set has finished.
		func() error { return r.applyOrdinary(ctx, set.SecurityPolicies, summary) },
		func() error { return r.loadData(ctx, set.Data, summary) },
	}
	for _, phase := range phases {
		if r.StopRequested != nil && r.StopRequested() {
			r.log.Warn("Shutdown requested - no further import phase will start")
			break
		}
		if err := phase(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
	}

	summary.Duration = time.Since(start)
	r.log.Infow("Import complete",
		"applied", summary.ScriptsApplied,
		"failed", summary.ScriptsFailed,
		"fk_validation_failures", summary.FkValidationFailures,
		"duration", summary.Duration.Round(time.Millisecond).String(),
	)
	return summary, nil
}

// applyOrdinary runs scripts in order. Outside the retry-eligible set a
// failure is fatal unless continue-on-error is configured.
func (r *Runner) applyOrdinary(ctx context.Context, scripts []Script, summary *Summary) error {
	for _, s := range scripts {
		if err := ApplyScript(ctx, r.exec, s.Path); err != nil {
			summary.ScriptsFailed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", s.RelPath, err))
			if !r.cfg.ContinueOnError {
				return fmt.Errorf("script %s failed: %w", s.RelPath, err)
			}
			r.log.Errorw("Script failed, continuing", "script", s.RelPath, "error", err)
			continue
		}
		summary.ScriptsApplied++
		r.log.Debugw("Script applied", "script", s.RelPath)
	}
	return nil
}

func (r *Runner) resolveRetryEligible(ctx context.Context, scripts []Script, summary *Summary) {
	if len(scripts) == 0 {
		return
	}

	resolver := NewResolver(r.exec, r.cfg.DependencyRetry.MaxPasses, r.log)
	result := resolver.Resolve(ctx, scripts)

	summary.ScriptsApplied += len(result.Applied)
	summary.ScriptsFailed += len(result.Failed)
	summary.ResolverPasses = result.Passes
	for _, f := range result.Failed {
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", f.Script.RelPath, f.Err))
		r.log.Errorw("Script failed after dependency retries", "script", f.Script.RelPath, "error", f.Err)
	}
}

// loadData brackets the data scripts with the foreign-key guard. Constraints
// are restored even when data scripts fail.
func (r *Runner) loadData(ctx context.Context, scripts []Script, summary *Summary) error {
	if len(scripts) == 0 {
		return nil
	}

	guard := NewFkGuard(r.db, r.log)
	refs, err := guard.Suspend(ctx)
	if err != nil {
		return fmt.Errorf("foreign key guard failed: %w", err)
	}
	summary.FkSuspended = len(refs)

	for _, s := range scripts {
		if err := ApplyScript(ctx, r.exec, s.Path); err != nil {
			summary.ScriptsFailed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", s.RelPath, err))
			r.log.Errorw("Data script failed", "script", s.RelPath, "error", err)
			continue
		}
		summary.ScriptsApplied++
	}

	for _, vErr := range guard.Restore(ctx, refs) {
		summary.FkValidationFailures++
		summary.Errors = append(summary.Errors, vErr.Error())
	}
	return nil
}
