// Package exporter orchestrates a schema export run: inventory snapshot,
// work-item construction, delta filtering, engine execution, and the
// metadata document that seeds the next delta run.
package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dbsmedya/sqlmirror/internal/config"
	"github.com/dbsmedya/sqlmirror/internal/database"
	"github.com/dbsmedya/sqlmirror/internal/delta"
	"github.com/dbsmedya/sqlmirror/internal/engine"
	"github.com/dbsmedya/sqlmirror/internal/inventory"
	"github.com/dbsmedya/sqlmirror/internal/logger"
	"github.com/dbsmedya/sqlmirror/internal/scripter"
	"github.com/dbsmedya/sqlmirror/internal/workitem"
)

// Summary aggregates one export run.
type Summary struct {
	ObjectCount     int
	ItemCount       int
	Succeeded       int
	Failed          int
	CopiedUnchanged int
	DeletedReported int
	MetadataWritten bool
	Duration        time.Duration
	Errors          []string
}

// FailureCount returns the failures deciding the process exit status.
func (s *Summary) FailureCount() int {
	return s.Failed
}

// Exporter runs the export phase end to end.
type Exporter struct {
	cfg *config.Config
	db  *database.Manager
	log *logger.Logger
}

// New creates an exporter. The database manager is not yet connected.
func New(cfg *config.Config, log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Exporter{cfg: cfg, db: database.NewManager(cfg), log: log}
}

// Run executes the export. Delta preconditions are validated before any
// connection is opened.
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	var detector *delta.Detector
	if e.cfg.Export.DeltaFrom != "" {
		metaPath := filepath.Join(e.cfg.Export.DeltaFrom, delta.MetadataFileName)
		d, err := delta.NewDetector(metaPath, e.cfg.Export.GroupingMode, e.log)
		if err != nil {
			return nil, err
		}
		detector = d
	}

	if err := e.db.ConnectSource(ctx); err != nil {
		return nil, err
	}
	defer e.db.Close()

	source, err := inventory.NewSQLSource(e.db.Source)
	if err != nil {
		return nil, err
	}
	snap, err := source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory snapshot failed: %w", err)
	}
	summary.ObjectCount = snap.Count()
	e.log.Infow("Inventory snapshot taken", "objects", snap.Count())

	builder, err := workitem.NewBuilder(&e.cfg.Export)
	if err != nil {
		return nil, err
	}
	items, err := builder.Build(snap)
	if err != nil {
		return nil, err
	}

	var classification *delta.Classification
	if detector != nil {
		classification = detector.Classify(snap)
		items = classification.FilterItems(items)
		summary.DeletedReported = len(classification.Deleted)
	}
	summary.ItemCount = len(items)

	if err := os.MkdirAll(e.cfg.Export.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	deps := engine.Deps{
		Connect:     e.db.OpenSource,
		NewScripter: func(db *sql.DB) (scripter.Scripter, error) { return scripter.NewCatalogScripter(db) },
		OutputRoot:  e.cfg.Export.OutputDir,
		Log:         e.log,
	}
	results, err := engine.Run(ctx, deps, items, e.cfg.Export.Parallel)
	if err != nil {
		return nil, err
	}
	summary.Succeeded, summary.Failed = workitem.Summarize(results)
	for _, r := range results {
		if !r.Succeeded {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", r.WorkItemID, r.Err))
		}
	}

	if detector != nil {
		if err := detector.CopyUnchanged(classification, e.cfg.Export.DeltaFrom, e.cfg.Export.OutputDir); err != nil {
			return nil, err
		}
		summary.CopiedUnchanged = len(classification.ToCopy)
	}

	// The metadata document seeds the next delta run, so it is written only
	// when every item succeeded and the tree is a trustworthy baseline.
	if summary.Failed == 0 {
		if err := e.writeMetadata(ctx, start, snap, items, classification); err != nil {
			return nil, err
		}
		summary.MetadataWritten = true
	} else {
		e.log.Warnw("Export had failures, metadata not written", "failed", summary.Failed)
	}

	summary.Duration = time.Since(start)
	e.log.Infow("Export complete",
		"items", summary.ItemCount,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"copied_unchanged", summary.CopiedUnchanged,
		"duration", summary.Duration.Round(time.Millisecond).String(),
	)
	return summary, nil
}

func (e *Exporter) writeMetadata(ctx context.Context, start time.Time, snap *inventory.Snapshot, items []workitem.WorkItem, classification *delta.Classification) error {
	meta := delta.NewMetadata(
		e.cfg.Source.Host,
		e.cfg.Source.Database,
		e.cfg.Export.GroupingMode,
		e.cfg.Export.IncludeData,
		start,
	)

	for _, item := range items {
		for _, obj := range item.Objects {
			meta.AddObject(obj, item.OutputPath)
		}
	}
	// Carried-forward files keep their previous recorded paths.
	if classification != nil {
		for _, rec := range classification.ToCopy {
			meta.Objects = append(meta.Objects, rec)
		}
		meta.ObjectCount = len(meta.Objects)
	}

	descriptors, err := e.fileGroupDescriptors(ctx)
	if err != nil {
		e.log.Warnw("Failed to read filegroup descriptors", "error", err)
	} else {
		meta.FileGroupDescriptors = descriptors
	}

	return meta.Save(e.cfg.Export.OutputDir)
}

func (e *Exporter) fileGroupDescriptors(ctx context.Context) ([]delta.FileGroupDescriptor, error) {
	rows, err := e.db.Source.QueryContext(ctx,
		"SELECT name, is_default FROM sys.filegroups ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var descriptors []delta.FileGroupDescriptor
	for rows.Next() {
		var d delta.FileGroupDescriptor
		if err := rows.Scan(&d.Name, &d.IsDefault); err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, rows.Err()
}
