// Package engine executes work items against the schema scripting service,
// either sequentially on one connection or on a fixed pool of workers.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dbsmedya/sqlmirror/internal/logger"
	"github.com/dbsmedya/sqlmirror/internal/scripter"
	"github.com/dbsmedya/sqlmirror/internal/workitem"
)

// ConnectFunc opens an independent database connection. The parallel strategy
// calls it once per worker; connections are never shared across workers.
type ConnectFunc func(ctx context.Context) (*sql.DB, error)

// ScripterFunc builds a scripting service bound to one connection.
type ScripterFunc func(db *sql.DB) (scripter.Scripter, error)

// Strategy is the contract both execution strategies satisfy. The set of
// output files and their logical content are independent of which strategy
// ran the items.
type Strategy interface {
	Execute(ctx context.Context, items []workitem.WorkItem) ([]workitem.Result, error)
}

// Deps carries what either strategy needs for a run.
type Deps struct {
	Connect     ConnectFunc
	NewScripter ScripterFunc
	OutputRoot  string
	Log         *logger.Logger
}

func (d *Deps) validate() error {
	if d.Connect == nil {
		return fmt.Errorf("connect function is nil")
	}
	if d.NewScripter == nil {
		return fmt.Errorf("scripter factory is nil")
	}
	if d.OutputRoot == "" {
		return fmt.Errorf("output root is empty")
	}
	if d.Log == nil {
		d.Log = logger.NewDefault()
	}
	return nil
}

// executeItem runs one work item against one scripter and produces its
// Result. Failures are recorded, never propagated: per-item errors must not
// abort the remaining items.
func executeItem(ctx context.Context, s scripter.Scripter, outputRoot string, item workitem.WorkItem) workitem.Result {
	result := workitem.Result{
		WorkItemID:  item.ID,
		ObjectCount: len(item.Objects),
	}

	outputPath := filepath.Join(outputRoot, filepath.FromSlash(item.OutputPath))

	for i, obj := range item.Objects {
		req := scripter.Request{
			Kind:        item.Kind,
			Owner:       obj.Owner,
			Name:        obj.Name,
			ParentOwner: obj.ParentOwner,
			ParentName:  obj.ParentName,
			Options:     item.Options,
			OutputPath:  outputPath,
			// The first object honors the item's append flag; later objects
			// in a grouped item extend the same file.
			Append: item.Append || i > 0,
		}
		if err := s.Script(ctx, req); err != nil {
			result.Err = fmt.Sprintf("scripting %s %s: %v", item.Kind, obj.QualifiedName(), err)
			return result
		}
	}

	result.Succeeded = true
	return result
}
