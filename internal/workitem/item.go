// Package workitem converts a database inventory into the flat list of work
// items that drives both execution strategies.
package workitem

import (
	"github.com/dbsmedya/sqlmirror/internal/inventory"
	"github.com/dbsmedya/sqlmirror/internal/scripter"
)

// GroupingMode controls how many objects share one output file.
type GroupingMode string

const (
	// GroupSingle emits one file per object.
	GroupSingle GroupingMode = "single"
	// GroupBySchema combines objects sharing a schema into one file.
	GroupBySchema GroupingMode = "by_schema"
	// GroupAll combines every object of a kind into one file.
	GroupAll GroupingMode = "all"
)

// SpecialHandling marks work items that bypass normal scripting.
type SpecialHandling string

const (
	// SpecialNone is ordinary DDL scripting.
	SpecialNone SpecialHandling = ""
	// SpecialData marks bulk data extraction items.
	SpecialData SpecialHandling = "data"
)

// WorkItem is one output artifact: a script file and the objects whose DDL/DML
// it carries. Within a run, OutputPath uniquely identifies at most one item.
type WorkItem struct {
	ID       string
	Kind     inventory.Kind
	Grouping GroupingMode

	// Objects has at least one entry. Parent-scoped kinds carry the owning
	// table inside each ObjectRef.
	Objects []inventory.ObjectRef

	// OutputPath is relative to the export root.
	OutputPath string

	// Append opens the existing file for appending instead of truncating.
	Append bool

	Options scripter.Options
	Special SpecialHandling
}

// Result records the outcome of executing one work item. Exactly one Result
// is produced per item.
type Result struct {
	WorkItemID  string
	ObjectCount int
	Succeeded   bool
	Err         string
}

// Summarize aggregates results into success/fail counts.
func Summarize(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.Succeeded {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
