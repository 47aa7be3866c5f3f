package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLSource reads the inventory from SQL Server catalog views.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource creates an inventory source over an open connection.
func NewSQLSource(db *sql.DB) (*SQLSource, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &SQLSource{db: db}, nil
}

// snapshotQuery enumerates every supported kind in one round-trip. Each branch
// projects the same columns: kind, owner, name, parent_owner, parent_name,
// modify_date (NULL for kinds without a trustworthy timestamp).
const snapshotQuery = `
SELECT 'filegroup', NULL, fg.name, NULL, NULL, NULL
FROM sys.filegroups fg
UNION ALL
SELECT 'security_principal', NULL, dp.name, NULL, NULL, NULL
FROM sys.database_principals dp
WHERE dp.type IN ('S','U','G','R') AND dp.is_fixed_role = 0
  AND dp.name NOT IN ('dbo','guest','sys','INFORMATION_SCHEMA','public')
UNION ALL
SELECT 'configuration', NULL, dsc.name, NULL, NULL, NULL
FROM sys.database_scoped_configurations dsc
UNION ALL
SELECT 'schema', NULL, s.name, NULL, NULL, NULL
FROM sys.schemas s
WHERE s.schema_id < 16000 AND s.name NOT IN ('sys','guest','INFORMATION_SCHEMA')
UNION ALL
SELECT 'sequence', SCHEMA_NAME(sq.schema_id), sq.name, NULL, NULL, sq.modify_date
FROM sys.sequences sq
UNION ALL
SELECT 'partition_function', NULL, pf.name, NULL, NULL, NULL
FROM sys.partition_functions pf
UNION ALL
SELECT 'partition_scheme', NULL, ps.name, NULL, NULL, NULL
FROM sys.partition_schemes ps
UNION ALL
SELECT 'user_type', SCHEMA_NAME(t.schema_id), t.name, NULL, NULL, NULL
FROM sys.types t
WHERE t.is_user_defined = 1
UNION ALL
SELECT 'table', SCHEMA_NAME(tb.schema_id), tb.name, NULL, NULL, tb.modify_date
FROM sys.tables tb
WHERE tb.is_ms_shipped = 0
UNION ALL
SELECT 'foreign_key', SCHEMA_NAME(pt.schema_id), fk.name, SCHEMA_NAME(pt.schema_id), pt.name, NULL
FROM sys.foreign_keys fk
JOIN sys.tables pt ON pt.object_id = fk.parent_object_id
UNION ALL
SELECT 'index', SCHEMA_NAME(it.schema_id), i.name, SCHEMA_NAME(it.schema_id), it.name, NULL
FROM sys.indexes i
JOIN sys.tables it ON it.object_id = i.object_id
WHERE i.index_id > 0 AND i.is_primary_key = 0 AND i.is_unique_constraint = 0
  AND i.name IS NOT NULL AND it.is_ms_shipped = 0
UNION ALL
SELECT 'default', SCHEMA_NAME(d.schema_id), d.name, NULL, NULL, d.modify_date
FROM sys.objects d
WHERE d.type = 'D' AND d.parent_object_id = 0 AND d.is_ms_shipped = 0
UNION ALL
SELECT 'rule', SCHEMA_NAME(r.schema_id), r.name, NULL, NULL, r.modify_date
FROM sys.objects r
WHERE r.type = 'R' AND r.is_ms_shipped = 0
UNION ALL
SELECT 'function', SCHEMA_NAME(f.schema_id), f.name, NULL, NULL, f.modify_date
FROM sys.objects f
WHERE f.type IN ('FN','IF','TF') AND f.is_ms_shipped = 0
UNION ALL
SELECT 'procedure', SCHEMA_NAME(p.schema_id), p.name, NULL, NULL, p.modify_date
FROM sys.objects p
WHERE p.type = 'P' AND p.is_ms_shipped = 0
UNION ALL
SELECT 'trigger', SCHEMA_NAME(tt.schema_id), tr.name, SCHEMA_NAME(tt.schema_id), tt.name, tr.modify_date
FROM sys.triggers tr
JOIN sys.tables tt ON tt.object_id = tr.parent_id
WHERE tr.is_ms_shipped = 0
UNION ALL
SELECT 'view', SCHEMA_NAME(v.schema_id), v.name, NULL, NULL, v.modify_date
FROM sys.views v
WHERE v.is_ms_shipped = 0
UNION ALL
SELECT 'synonym', SCHEMA_NAME(sy.schema_id), sy.name, NULL, NULL, sy.modify_date
FROM sys.synonyms sy
UNION ALL
SELECT 'fulltext_catalog', NULL, fc.name, NULL, NULL, NULL
FROM sys.fulltext_catalogs fc
UNION ALL
SELECT 'external_data_source', NULL, eds.name, NULL, NULL, eds.modify_date
FROM sys.external_data_sources eds
UNION ALL
SELECT 'security_policy', SCHEMA_NAME(sp.schema_id), sp.name, NULL, NULL, sp.modify_date
FROM sys.security_policies sp`

// Snapshot reads the complete inventory in a single batched query.
func (s *SQLSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := NewSnapshot(time.Now().UTC())

	rows, err := s.db.QueryContext(ctx, snapshotQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kindName    string
			owner       sql.NullString
			name        string
			parentOwner sql.NullString
			parentName  sql.NullString
			modified    sql.NullTime
		)
		if err := rows.Scan(&kindName, &owner, &name, &parentOwner, &parentName, &modified); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}

		kind := Kind(kindName)
		spec, ok := Spec(kind)
		if !ok {
			return nil, fmt.Errorf("inventory query returned unknown kind %q", kindName)
		}

		ref := ObjectRef{
			Kind:        kind,
			Owner:       owner.String,
			Name:        name,
			ParentOwner: parentOwner.String,
			ParentName:  parentName.String,
		}
		if spec.Timestamped && modified.Valid {
			ref.Modified = modified.Time.UTC()
			ref.HasModified = true
		}
		snap.Add(ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inventory rows: %w", err)
	}

	return snap, nil
}
