package importer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/sqlmirror/internal/logger"
	"github.com/dbsmedya/sqlmirror/internal/sqlutil"
)

// FkConstraintRef identifies one suspended foreign-key constraint.
type FkConstraintRef struct {
	TableSchema    string
	TableName      string
	ConstraintName string
}

func (r FkConstraintRef) String() string {
	return fmt.Sprintf("%s.%s.%s", r.TableSchema, r.TableName, r.ConstraintName)
}

// ValidationError reports a constraint whose re-enable-with-check failed:
// existing rows violate the constraint. This is a data problem, not a DDL
// problem, and is counted separately from script-apply errors.
type ValidationError struct {
	Constraint FkConstraintRef
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("foreign key %s failed validation: %v", e.Constraint, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

const enabledForeignKeysQuery = `
SELECT s.name AS table_schema, t.name AS table_name, fk.name AS constraint_name
FROM sys.foreign_keys fk
JOIN sys.tables t ON t.object_id = fk.parent_object_id
JOIN sys.schemas s ON s.schema_id = t.schema_id
WHERE fk.is_disabled = 0
ORDER BY s.name, t.name, fk.name`

// FkGuard brackets the data-load phase: suspend every enabled foreign key so
// data scripts can run in any order, then re-enable each with validation.
type FkGuard struct {
	db  *sql.DB
	log *logger.Logger
}

// NewFkGuard creates a guard over one target connection.
func NewFkGuard(db *sql.DB, log *logger.Logger) *FkGuard {
	if log == nil {
		log = logger.NewDefault()
	}
	return &FkGuard{db: db, log: log}
}

// Suspend disables every currently-enabled foreign key and returns the list
// needed for restoration. Zero enabled constraints is a valid outcome.
func (g *FkGuard) Suspend(ctx context.Context) ([]FkConstraintRef, error) {
	rows, err := g.db.QueryContext(ctx, enabledForeignKeysQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate foreign keys: %w", err)
	}
	defer rows.Close()

	var refs []FkConstraintRef
	for rows.Next() {
		var ref FkConstraintRef
		if err := rows.Scan(&ref.TableSchema, &ref.TableName, &ref.ConstraintName); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("foreign key enumeration failed: %w", err)
	}

	for i, ref := range refs {
		stmt := fmt.Sprintf("ALTER TABLE %s NOCHECK CONSTRAINT %s",
			sqlutil.QualifiedName(ref.TableSchema, ref.TableName),
			sqlutil.QuoteIdentifier(ref.ConstraintName))
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			// Restore the ones already suspended before bailing out.
			restoreErrs := g.Restore(ctx, refs[:i])
			return nil, fmt.Errorf("failed to suspend foreign key %s (restored %d of %d): %w",
				ref, i-len(restoreErrs), i, err)
		}
	}

	g.log.Infow("Foreign key constraints suspended", "count", len(refs))
	return refs, nil
}

// Restore re-enables every suspended constraint using WITH CHECK so existing
// rows are validated. Every constraint is attempted regardless of earlier
// failures; each failure becomes a ValidationError in the returned slice, so
// no constraint is ever silently left disabled.
func (g *FkGuard) Restore(ctx context.Context, refs []FkConstraintRef) []*ValidationError {
	var failures []*ValidationError
	for _, ref := range refs {
		stmt := fmt.Sprintf("ALTER TABLE %s WITH CHECK CHECK CONSTRAINT %s",
			sqlutil.QualifiedName(ref.TableSchema, ref.TableName),
			sqlutil.QuoteIdentifier(ref.ConstraintName))
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			failures = append(failures, &ValidationError{Constraint: ref, Err: err})
			g.log.Errorw("Foreign key re-validation failed", "constraint", ref.String(), "error", err)
		}
	}

	g.log.Infow("Foreign key constraints restored",
		"count", len(refs)-len(failures),
		"failed", len(failures),
	)
	return failures
}
