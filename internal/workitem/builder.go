package workitem

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/sqlmirror/internal/config"
	"github.com/dbsmedya/sqlmirror/internal/inventory"
	"github.com/dbsmedya/sqlmirror/internal/scripter"
)

// kindOptions is the per-kind script option table. Facet separation lives
// here and nowhere else: tables emit columns plus primary key, while foreign
// keys and indexes are distinct facets of the same table routed to their own
// phase folders.
var kindOptions = map[inventory.Kind]scripter.Options{
	inventory.KindTable:      {"primary_key": "true", "facet": "table"},
	inventory.KindForeignKey: {"facet": "foreign_keys"},
	inventory.KindIndex:      {"facet": "indexes"},
	inventory.KindData:       {"facet": "data"},
}

// Builder converts an inventory snapshot plus grouping and filter policy into
// work items.
type Builder struct {
	cfg *config.ExportConfig
}

// NewBuilder creates a Builder for the given export configuration.
func NewBuilder(cfg *config.ExportConfig) (*Builder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("export config is nil")
	}
	for _, kind := range append(append([]string{}, cfg.IncludeKinds...), cfg.ExcludeKinds...) {
		if !inventory.IsValid(inventory.Kind(kind)) {
			return nil, fmt.Errorf("unknown object kind %q in kind filter", kind)
		}
	}
	return &Builder{cfg: cfg}, nil
}

// Build produces the work-item list for one run. Output is deterministic:
// rerunning against an unchanged inventory yields byte-identical path
// assignments, which delta mode's file-copy step depends on.
func (b *Builder) Build(snap *inventory.Snapshot) ([]WorkItem, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}

	var items []WorkItem
	pathsSeen := make(map[string]string)

	for _, kind := range inventory.AllKinds() {
		if !b.kindIncluded(kind) {
			continue
		}

		var refs []inventory.ObjectRef
		if kind == inventory.KindData {
			// Data items are derived from the table inventory.
			if !b.cfg.IncludeData {
				continue
			}
			for _, t := range snap.ByKind(inventory.KindTable) {
				refs = append(refs, inventory.ObjectRef{
					Kind:  inventory.KindData,
					Owner: t.Owner,
					Name:  t.Name,
				})
			}
		} else {
			refs = snap.ByKind(kind)
		}

		refs = b.filterNames(refs)
		if len(refs) == 0 {
			continue
		}
		sortRefs(refs)

		mode := GroupingMode(b.cfg.GroupingModeFor(string(kind)))
		kindItems, err := b.buildKind(kind, mode, refs)
		if err != nil {
			return nil, err
		}

		for _, item := range kindItems {
			if prior, dup := pathsSeen[item.OutputPath]; dup {
				return nil, fmt.Errorf("output path collision: %s claimed by %s and %s",
					item.OutputPath, prior, item.ID)
			}
			pathsSeen[item.OutputPath] = item.ID
			items = append(items, item)
		}
	}

	return items, nil
}

// buildKind emits the items for one kind under one grouping mode.
func (b *Builder) buildKind(kind inventory.Kind, mode GroupingMode, refs []inventory.ObjectRef) ([]WorkItem, error) {
	spec, ok := inventory.Spec(kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	special := SpecialNone
	if kind == inventory.KindData {
		special = SpecialData
	}
	opts := kindOptions[kind].Clone()

	switch mode {
	case GroupSingle, "":
		items := make([]WorkItem, 0, len(refs))
		for _, ref := range refs {
			outputPath := singlePath(spec, ref)
			items = append(items, WorkItem{
				ID:         itemID(kind, outputPath),
				Kind:       kind,
				Grouping:   GroupSingle,
				Objects:    []inventory.ObjectRef{ref},
				OutputPath: outputPath,
				Options:    opts,
				Special:    special,
			})
		}
		return items, nil

	case GroupBySchema:
		groups := orderedmap.NewOrderedMap[string, []inventory.ObjectRef]()
		for _, name := range sortedGroupNames(refs) {
			groups.Set(name, nil)
		}
		for _, ref := range refs {
			g, _ := groups.Get(groupName(ref))
			groups.Set(groupName(ref), append(g, ref))
		}

		var items []WorkItem
		seq := 0
		for el := groups.Front(); el != nil; el = el.Next() {
			seq++
			outputPath := path.Join(spec.PhaseDir,
				fmt.Sprintf("%02d_%s.%s.sql", seq, sanitize(el.Key), kind))
			items = append(items, WorkItem{
				ID:         itemID(kind, outputPath),
				Kind:       kind,
				Grouping:   GroupBySchema,
				Objects:    el.Value,
				OutputPath: outputPath,
				Options:    opts,
				Special:    special,
			})
		}
		return items, nil

	case GroupAll:
		outputPath := path.Join(spec.PhaseDir, fmt.Sprintf("all.%s.sql", kind))
		return []WorkItem{{
			ID:         itemID(kind, outputPath),
			Kind:       kind,
			Grouping:   GroupAll,
			Objects:    refs,
			OutputPath: outputPath,
			Options:    opts,
			Special:    special,
		}}, nil

	default:
		return nil, fmt.Errorf("unknown grouping mode %q for kind %s", mode, kind)
	}
}

// singlePath is the pure path function for single mode. Parent-scoped kinds
// are filed under their owning table so the name stays unique per object.
func singlePath(spec inventory.KindSpec, ref inventory.ObjectRef) string {
	var stem string
	switch {
	case spec.ParentScoped:
		stem = fmt.Sprintf("%s.%s.%s", sanitize(ref.ParentOwner), sanitize(ref.ParentName), sanitize(ref.Name))
	case ref.Owner != "":
		stem = fmt.Sprintf("%s.%s", sanitize(ref.Owner), sanitize(ref.Name))
	default:
		stem = sanitize(ref.Name)
	}
	return path.Join(spec.PhaseDir, fmt.Sprintf("%s.%s.sql", spec.Kind, stem))
}

func itemID(kind inventory.Kind, outputPath string) string {
	return fmt.Sprintf("%s:%s", kind, outputPath)
}

// groupName is the grouping key: the schema, or the object name itself for
// database-scoped kinds (which then degenerate to one object per group).
func groupName(ref inventory.ObjectRef) string {
	if ref.Owner != "" {
		return ref.Owner
	}
	return ref.Name
}

func sortedGroupNames(refs []inventory.ObjectRef) []string {
	seen := make(map[string]bool)
	var names []string
	for _, ref := range refs {
		n := groupName(ref)
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

func sortRefs(refs []inventory.ObjectRef) {
	sort.Slice(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if a.ParentOwner != b.ParentOwner {
			return a.ParentOwner < b.ParentOwner
		}
		if a.ParentName != b.ParentName {
			return a.ParentName < b.ParentName
		}
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		return a.Name < b.Name
	})
}

// kindIncluded applies the mutually exclusive whitelist/blacklist.
func (b *Builder) kindIncluded(kind inventory.Kind) bool {
	if len(b.cfg.IncludeKinds) > 0 {
		for _, k := range b.cfg.IncludeKinds {
			if inventory.Kind(k) == kind {
				return true
			}
		}
		return false
	}
	for _, k := range b.cfg.ExcludeKinds {
		if inventory.Kind(k) == kind {
			return false
		}
	}
	return true
}

// filterNames applies include/exclude glob patterns against qualified names.
func (b *Builder) filterNames(refs []inventory.ObjectRef) []inventory.ObjectRef {
	if len(b.cfg.IncludeNames) == 0 && len(b.cfg.ExcludeNames) == 0 {
		return refs
	}

	var kept []inventory.ObjectRef
	for _, ref := range refs {
		name := ref.QualifiedName()
		if len(b.cfg.IncludeNames) > 0 && !matchesAny(b.cfg.IncludeNames, name) {
			continue
		}
		if matchesAny(b.cfg.ExcludeNames, name) {
			continue
		}
		kept = append(kept, ref)
	}
	return kept
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// sanitize makes an object name safe as a file-name fragment.
func sanitize(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(name)
}
