package delta

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dbsmedya/sqlmirror/internal/config"
	"github.com/dbsmedya/sqlmirror/internal/inventory"
	"github.com/dbsmedya/sqlmirror/internal/logger"
	"github.com/dbsmedya/sqlmirror/internal/workitem"
)

// Classification partitions the current inventory for a delta run.
type Classification struct {
	Modified []inventory.ObjectRef
	New      []inventory.ObjectRef
	Unchanged []inventory.ObjectRef

	// AlwaysExport holds objects of kinds with no trustworthy timestamp,
	// unconditionally re-exported.
	AlwaysExport []inventory.ObjectRef

	// Deleted lists objects present in the previous export but absent now.
	// Informational only: nothing is removed from the output tree.
	Deleted []ObjectRecord

	// ToCopy lists the previous run's files satisfying the Unchanged set,
	// copied verbatim into the new output tree.
	ToCopy []ObjectRecord
}

// Detector implements delta-mode change detection against a previous export.
type Detector struct {
	prev *ExportMetadata
	log  *logger.Logger
}

// NewDetector validates the delta preconditions and loads the previous
// metadata. This runs before any database connection is opened: a missing or
// unparsable metadata file, or a grouping-mode mismatch, fails the run fast.
func NewDetector(metaPath string, currentGrouping string, log *logger.Logger) (*Detector, error) {
	if metaPath == "" {
		return nil, fmt.Errorf("delta metadata path is empty")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	prev, err := LoadMetadata(metaPath)
	if err != nil {
		return nil, fmt.Errorf("delta precondition failed: %w", err)
	}

	// Grouped output files cannot be incrementally merged.
	if prev.GroupingMode != config.GroupingSingle {
		return nil, fmt.Errorf("delta precondition failed: previous export used grouping mode %q, delta requires %q",
			prev.GroupingMode, config.GroupingSingle)
	}
	if currentGrouping != config.GroupingSingle {
		return nil, fmt.Errorf("delta precondition failed: current run uses grouping mode %q, delta requires %q",
			currentGrouping, config.GroupingSingle)
	}

	return &Detector{prev: prev, log: log}, nil
}

// Previous returns the loaded previous-export metadata.
func (d *Detector) Previous() *ExportMetadata {
	return d.prev
}

// Classify compares the live inventory against the previous export.
func (d *Detector) Classify(snap *inventory.Snapshot) *Classification {
	c := &Classification{}

	prevLookup := make(map[string]ObjectRecord, len(d.prev.Objects))
	for _, rec := range d.prev.Objects {
		prevLookup[rec.Key()] = rec
	}

	currentKeys := make(map[string]bool)
	for _, ref := range snap.All() {
		currentKeys[ref.Key()] = true

		spec, _ := inventory.Spec(ref.Kind)
		if !spec.Timestamped {
			c.AlwaysExport = append(c.AlwaysExport, ref)
			continue
		}

		rec, existed := prevLookup[ref.Key()]
		switch {
		case !existed:
			c.New = append(c.New, ref)
		case ref.HasModified && ref.Modified.After(d.prev.ExportStartTimeUtc):
			c.Modified = append(c.Modified, ref)
		default:
			c.Unchanged = append(c.Unchanged, ref)
			c.ToCopy = append(c.ToCopy, rec)
		}
	}

	for _, rec := range d.prev.Objects {
		// Data records have no inventory counterpart: the snapshot never
		// carries data refs, the builder derives them from the table set.
		if rec.Kind == string(inventory.KindData) {
			continue
		}
		if !currentKeys[rec.Key()] {
			c.Deleted = append(c.Deleted, rec)
		}
	}

	d.log.Infow("Delta classification complete",
		"modified", len(c.Modified),
		"new", len(c.New),
		"unchanged", len(c.Unchanged),
		"always_export", len(c.AlwaysExport),
		"deleted", len(c.Deleted),
	)

	return c
}

// ExportSet returns the keys of objects that must be re-exported this run:
// Modified, New, and every always-export object.
func (c *Classification) ExportSet() map[string]bool {
	set := make(map[string]bool)
	for _, ref := range c.Modified {
		set[ref.Key()] = true
	}
	for _, ref := range c.New {
		set[ref.Key()] = true
	}
	for _, ref := range c.AlwaysExport {
		set[ref.Key()] = true
	}
	return set
}

// FilterItems keeps the work items whose object is in the export set. Delta
// mode runs in single grouping, so every item carries exactly one object.
// Data items are always kept: their refs are derived from current tables,
// not snapshotted, and row contents change without moving any modify_date.
func (c *Classification) FilterItems(items []workitem.WorkItem) []workitem.WorkItem {
	set := c.ExportSet()
	var kept []workitem.WorkItem
	for _, item := range items {
		if item.Special == workitem.SpecialData {
			kept = append(kept, item)
			continue
		}
		for _, obj := range item.Objects {
			if set[obj.Key()] {
				kept = append(kept, item)
				break
			}
		}
	}
	return kept
}

// CopyUnchanged copies the previous run's file bytes verbatim into the new
// output tree for every record in ToCopy. Each recorded path is validated
// against parent-directory traversal before use: the metadata file is the
// only input to this step and may be corrupted or hostile.
func (d *Detector) CopyUnchanged(c *Classification, prevRoot, newRoot string) error {
	copied := 0
	for _, rec := range c.ToCopy {
		rel, err := safeRelativePath(rec.FilePath)
		if err != nil {
			return fmt.Errorf("refusing metadata path for %s: %w", rec.Key(), err)
		}

		src := filepath.Join(prevRoot, rel)
		dst := filepath.Join(newRoot, rel)

		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to copy unchanged file for %s: %w", rec.Key(), err)
		}
		copied++
	}

	d.log.Infow("Copied unchanged files from previous export", "files", copied)
	return nil
}

// safeRelativePath rejects absolute paths and any parent-directory traversal.
func safeRelativePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	slashed := filepath.ToSlash(p)
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(p) {
		return "", fmt.Errorf("absolute path %q", p)
	}
	// Windows drive or volume prefix
	if strings.Contains(slashed, ":") {
		return "", fmt.Errorf("path %q contains a volume qualifier", p)
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(slashed)))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../") {
		return "", fmt.Errorf("path %q escapes the export tree", p)
	}
	return filepath.FromSlash(cleaned), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
