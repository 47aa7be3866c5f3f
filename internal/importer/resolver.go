package importer

import (
	"context"

	"github.com/dbsmedya/sqlmirror/internal/logger"
)

// ResolveResult reports the outcome of the multi-pass dependency resolution.
type ResolveResult struct {
	Applied []Script
	Failed  []ScriptError
	Passes  int
}

// ScriptError pairs a script with its final application error.
type ScriptError struct {
	Script Script
	Err    error
}

// Resolver applies retry-eligible scripts in bounded fixpoint passes. Scripts
// referencing objects created by later scripts fail on an early pass and
// succeed once their dependency has been applied; a pass that resolves
// nothing stops the loop early because the remaining failures are genuine.
type Resolver struct {
	exec      BatchExecutor
	maxPasses int
	log       *logger.Logger
}

// NewResolver creates a dependency resolver. maxPasses values below 1 are
// treated as 1.
func NewResolver(exec BatchExecutor, maxPasses int, log *logger.Logger) *Resolver {
	if maxPasses < 1 {
		maxPasses = 1
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Resolver{exec: exec, maxPasses: maxPasses, log: log}
}

// Resolve runs the fixpoint loop over scripts, which must already be in a
// stable deterministic order. Passes run strictly one after another: each
// pass's pending set is derived from the previous pass's failures.
func (r *Resolver) Resolve(ctx context.Context, scripts []Script) *ResolveResult {
	result := &ResolveResult{}
	pending := scripts

	for pass := 1; pass <= r.maxPasses && len(pending) > 0; pass++ {
		result.Passes = pass

		var stillPending []Script
		lastErrs := make(map[string]error, len(pending))
		for _, s := range pending {
			if err := ApplyScript(ctx, r.exec, s.Path); err != nil {
				lastErrs[s.RelPath] = err
				stillPending = append(stillPending, s)
				r.log.Debugw("Script deferred", "pass", pass, "script", s.RelPath, "error", err)
				continue
			}
			result.Applied = append(result.Applied, s)
		}

		resolved := len(pending) - len(stillPending)
		r.log.Infow("Dependency pass complete",
			"pass", pass,
			"applied", resolved,
			"pending", len(stillPending),
		)

		if resolved == 0 {
			// No progress: remaining scripts are real errors, not
			// ordering artifacts.
			for _, s := range stillPending {
				result.Failed = append(result.Failed, ScriptError{Script: s, Err: lastErrs[s.RelPath]})
			}
			return result
		}
		if pass == r.maxPasses {
			for _, s := range stillPending {
				result.Failed = append(result.Failed, ScriptError{Script: s, Err: lastErrs[s.RelPath]})
			}
			return result
		}
		pending = stillPending
	}

	return result
}
