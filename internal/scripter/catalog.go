package scripter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dbsmedya/sqlmirror/internal/inventory"
	"github.com/dbsmedya/sqlmirror/internal/sqlutil"
)

// ErrUnsupportedKind is returned for object kinds the catalog scripter cannot
// yet render. The caller records these as per-item failures.
var ErrUnsupportedKind = errors.New("unsupported object kind")

// CatalogScripter renders DDL/DML from SQL Server catalog views. It covers the
// kinds whose definitions the catalog exposes directly; exotic kinds report
// ErrUnsupportedKind rather than emitting wrong DDL.
type CatalogScripter struct {
	db *sql.DB
}

// NewCatalogScripter creates a scripter over an open connection.
func NewCatalogScripter(db *sql.DB) (*CatalogScripter, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &CatalogScripter{db: db}, nil
}

// Script writes the object's DDL/DML to req.OutputPath.
func (c *CatalogScripter) Script(ctx context.Context, req Request) error {
	var (
		text string
		err  error
	)

	switch req.Kind {
	case inventory.KindSchema:
		text = fmt.Sprintf("CREATE SCHEMA %s\nGO\n", sqlutil.QuoteIdentifier(req.Name))
	case inventory.KindView, inventory.KindProcedure, inventory.KindFunction, inventory.KindTrigger:
		text, err = c.moduleDefinition(ctx, req)
	case inventory.KindSequence:
		text, err = c.sequenceDefinition(ctx, req)
	case inventory.KindSynonym:
		text, err = c.synonymDefinition(ctx, req)
	case inventory.KindTable:
		text, err = c.tableDefinition(ctx, req)
	case inventory.KindForeignKey:
		text, err = c.foreignKeyDefinition(ctx, req)
	case inventory.KindIndex:
		text, err = c.indexDefinition(ctx, req)
	case inventory.KindData:
		text, err = c.tableData(ctx, req)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, req.Kind)
	}
	if err != nil {
		return err
	}

	return writeScript(req, text)
}

// moduleDefinition reads the stored module text (views, procedures, functions,
// triggers) from sys.sql_modules.
func (c *CatalogScripter) moduleDefinition(ctx context.Context, req Request) (string, error) {
	const q = `SELECT m.definition
FROM sys.sql_modules m
WHERE m.object_id = OBJECT_ID(@qualified)`

	var definition sql.NullString
	err := c.db.QueryRowContext(ctx, q,
		sql.Named("qualified", sqlutil.QualifiedName(req.Owner, req.Name)),
	).Scan(&definition)
	if err != nil {
		return "", fmt.Errorf("failed to read module definition for %s.%s: %w", req.Owner, req.Name, err)
	}
	if !definition.Valid || definition.String == "" {
		return "", fmt.Errorf("module %s.%s has no stored definition", req.Owner, req.Name)
	}

	return strings.TrimRight(definition.String, "\r\n ") + "\nGO\n", nil
}

func (c *CatalogScripter) sequenceDefinition(ctx context.Context, req Request) (string, error) {
	const q = `SELECT CAST(sq.start_value AS bigint), CAST(sq.increment AS bigint)
FROM sys.sequences sq
WHERE sq.object_id = OBJECT_ID(@qualified)`

	var start, increment int64
	err := c.db.QueryRowContext(ctx, q,
		sql.Named("qualified", sqlutil.QualifiedName(req.Owner, req.Name)),
	).Scan(&start, &increment)
	if err != nil {
		return "", fmt.Errorf("failed to read sequence %s.%s: %w", req.Owner, req.Name, err)
	}

	return fmt.Sprintf("CREATE SEQUENCE %s START WITH %d INCREMENT BY %d\nGO\n",
		sqlutil.QualifiedName(req.Owner, req.Name), start, increment), nil
}

func (c *CatalogScripter) synonymDefinition(ctx context.Context, req Request) (string, error) {
	const q = `SELECT sy.base_object_name
FROM sys.synonyms sy
WHERE sy.object_id = OBJECT_ID(@qualified)`

	var base string
	err := c.db.QueryRowContext(ctx, q,
		sql.Named("qualified", sqlutil.QualifiedName(req.Owner, req.Name)),
	).Scan(&base)
	if err != nil {
		return "", fmt.Errorf("failed to read synonym %s.%s: %w", req.Owner, req.Name, err)
	}

	return fmt.Sprintf("CREATE SYNONYM %s FOR %s\nGO\n",
		sqlutil.QualifiedName(req.Owner, req.Name), base), nil
}

// tableDefinition renders CREATE TABLE with columns and, when the
// "primary_key" option is set, the primary key constraint. Foreign keys and
// indexes are separate facets emitted by their own work items.
func (c *CatalogScripter) tableDefinition(ctx context.Context, req Request) (string, error) {
	const q = `SELECT col.name, UPPER(tp.name), col.max_length, col.precision, col.scale,
       col.is_nullable, col.is_identity
FROM sys.columns col
JOIN sys.types tp ON tp.user_type_id = col.user_type_id
WHERE col.object_id = OBJECT_ID(@qualified)
ORDER BY col.column_id`

	rows, err := c.db.QueryContext(ctx, q,
		sql.Named("qualified", sqlutil.QualifiedName(req.Owner, req.Name)))
	if err != nil {
		return "", fmt.Errorf("failed to read columns for %s.%s: %w", req.Owner, req.Name, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			name, typeName       string
			maxLen, prec, scale  int
			nullable, isIdentity bool
		)
		if err := rows.Scan(&name, &typeName, &maxLen, &prec, &scale, &nullable, &isIdentity); err != nil {
			return "", fmt.Errorf("failed to scan column for %s.%s: %w", req.Owner, req.Name, err)
		}

		col := "    " + sqlutil.QuoteIdentifier(name) + " " + columnType(typeName, maxLen, prec, scale)
		if isIdentity {
			col += " IDENTITY(1,1)"
		}
		if !nullable {
			col += " NOT NULL"
		} else {
			col += " NULL"
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read columns for %s.%s: %w", req.Owner, req.Name, err)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s.%s has no columns in catalog", req.Owner, req.Name)
	}

	text := fmt.Sprintf("CREATE TABLE %s (\n%s\n)\nGO\n",
		sqlutil.QualifiedName(req.Owner, req.Name), strings.Join(cols, ",\n"))

	if req.Options["primary_key"] == "true" {
		pk, err := c.primaryKeyDefinition(ctx, req)
		if err != nil {
			return "", err
		}
		text += pk
	}

	return text, nil
}

func (c *CatalogScripter) primaryKeyDefinition(ctx context.Context, req Request) (string, error) {
	const q = `SELECT kc.name, col.name
FROM sys.key_constraints kc
JOIN sys.index_columns ic
  ON ic.object_id = kc.parent_object_id AND ic.index_id = kc.unique_index_id
JOIN sys.columns col
  ON col.object_id = ic.object_id AND col.column_id = ic.column_id
WHERE kc.parent_object_id = OBJECT_ID(@qualified) AND kc.type = 'PK'
ORDER BY ic.key_ordinal`

	rows, err := c.db.QueryContext(ctx, q,
		sql.Named("qualified", sqlutil.QualifiedName(req.Owner, req.Name)))
	if err != nil {
		return "", fmt.Errorf("failed to read primary key for %s.%s: %w", req.Owner, req.Name, err)
	}
	defer rows.Close()

	var pkName string
	var keyCols []string
	for rows.Next() {
		var colName string
		if err := rows.Scan(&pkName, &colName); err != nil {
			return "", fmt.Errorf("failed to scan primary key for %s.%s: %w", req.Owner, req.Name, err)
		}
		keyCols = append(keyCols, sqlutil.QuoteIdentifier(colName))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(keyCols) == 0 {
		return "", nil // heap table
	}

	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)\nGO\n",
		sqlutil.QualifiedName(req.Owner, req.Name),
		sqlutil.QuoteIdentifier(pkName),
		strings.Join(keyCols, ", ")), nil
}

func (c *CatalogScripter) foreignKeyDefinition(ctx context.Context, req Request) (string, error) {
	const q = `SELECT pc.name, SCHEMA_NAME(rt.schema_id), rt.name, rc.name
FROM sys.foreign_keys fk
JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
WHERE fk.name = @name AND fk.parent_object_id = OBJECT_ID(@parent)
ORDER BY fkc.constraint_column_id`

	rows, err := c.db.QueryContext(ctx, q,
		sql.Named("name", req.Name),
		sql.Named("parent", sqlutil.QualifiedName(req.ParentOwner, req.ParentName)))
	if err != nil {
		return "", fmt.Errorf("failed to read foreign key %s: %w", req.Name, err)
	}
	defer rows.Close()

	var parentCols, refCols []string
	var refOwner, refTable string
	for rows.Next() {
		var pc, rc string
		if err := rows.Scan(&pc, &refOwner, &refTable, &rc); err != nil {
			return "", fmt.Errorf("failed to scan foreign key %s: %w", req.Name, err)
		}
		parentCols = append(parentCols, sqlutil.QuoteIdentifier(pc))
		refCols = append(refCols, sqlutil.QuoteIdentifier(rc))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(parentCols) == 0 {
		return "", fmt.Errorf("foreign key %s not found on %s.%s", req.Name, req.ParentOwner, req.ParentName)
	}

	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)\nGO\n",
		sqlutil.QualifiedName(req.ParentOwner, req.ParentName),
		sqlutil.QuoteIdentifier(req.Name),
		strings.Join(parentCols, ", "),
		sqlutil.QualifiedName(refOwner, refTable),
		strings.Join(refCols, ", ")), nil
}

func (c *CatalogScripter) indexDefinition(ctx context.Context, req Request) (string, error) {
	const q = `SELECT i.is_unique, col.name, ic.is_descending_key
FROM sys.indexes i
JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
JOIN sys.columns col ON col.object_id = ic.object_id AND col.column_id = ic.column_id
WHERE i.name = @name AND i.object_id = OBJECT_ID(@parent) AND ic.is_included_column = 0
ORDER BY ic.key_ordinal`

	rows, err := c.db.QueryContext(ctx, q,
		sql.Named("name", req.Name),
		sql.Named("parent", sqlutil.QualifiedName(req.ParentOwner, req.ParentName)))
	if err != nil {
		return "", fmt.Errorf("failed to read index %s: %w", req.Name, err)
	}
	defer rows.Close()

	var isUnique bool
	var keyCols []string
	for rows.Next() {
		var colName string
		var descending bool
		if err := rows.Scan(&isUnique, &colName, &descending); err != nil {
			return "", fmt.Errorf("failed to scan index %s: %w", req.Name, err)
		}
		col := sqlutil.QuoteIdentifier(colName)
		if descending {
			col += " DESC"
		}
		keyCols = append(keyCols, col)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(keyCols) == 0 {
		return "", fmt.Errorf("index %s not found on %s.%s", req.Name, req.ParentOwner, req.ParentName)
	}

	unique := ""
	if isUnique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)\nGO\n",
		unique,
		sqlutil.QuoteIdentifier(req.Name),
		sqlutil.QualifiedName(req.ParentOwner, req.ParentName),
		strings.Join(keyCols, ", ")), nil
}

// tableData emits one INSERT per row. Loads run under the foreign-key guard,
// so emit order does not matter.
func (c *CatalogScripter) tableData(ctx context.Context, req Request) (string, error) {
	table := sqlutil.QualifiedName(req.Owner, req.Name)

	rows, err := c.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return "", fmt.Errorf("failed to read data from %s: %w", table, err)
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	quotedCols := make([]string, len(colNames))
	for i, n := range colNames {
		quotedCols[i] = sqlutil.QuoteIdentifier(n)
	}
	columnList := strings.Join(quotedCols, ", ")

	var sb strings.Builder
	values := make([]interface{}, len(colNames))
	scanArgs := make([]interface{}, len(colNames))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return "", fmt.Errorf("failed to scan row from %s: %w", table, err)
		}
		literals := make([]string, len(values))
		for i, v := range values {
			literals[i] = sqlLiteral(v)
		}
		fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s)\nGO\n",
			table, columnList, strings.Join(literals, ", "))
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read data from %s: %w", table, err)
	}

	return sb.String(), nil
}

// sqlLiteral renders a scanned value as a T-SQL literal.
func sqlLiteral(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "N'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	case string:
		return "N'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// columnType renders a catalog type with its length/precision suffix.
func columnType(typeName string, maxLen, prec, scale int) string {
	switch typeName {
	case "VARCHAR", "CHAR", "VARBINARY", "BINARY":
		if maxLen == -1 {
			return typeName + "(MAX)"
		}
		return fmt.Sprintf("%s(%d)", typeName, maxLen)
	case "NVARCHAR", "NCHAR":
		if maxLen == -1 {
			return typeName + "(MAX)"
		}
		// max_length is bytes; UTF-16 characters are two bytes
		return fmt.Sprintf("%s(%d)", typeName, maxLen/2)
	case "DECIMAL", "NUMERIC":
		return fmt.Sprintf("%s(%d,%d)", typeName, prec, scale)
	default:
		return typeName
	}
}

// writeScript writes or appends the script text at req.OutputPath, creating
// parent directories as needed.
func writeScript(req Request, text string) error {
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if req.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(req.OutputPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file %s: %w", req.OutputPath, err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("failed to write %s: %w", req.OutputPath, err)
	}
	return nil
}
