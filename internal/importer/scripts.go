package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dbsmedya/sqlmirror/internal/inventory"
)

// Script is one .sql file discovered in the input tree.
type Script struct {
	Path     string // absolute path
	RelPath  string // path relative to the input root, slash-separated
	PhaseDir string
	Kind     inventory.Kind // zero value when the filename carries no kind token
}

// ScriptSet partitions the input tree for application: ordinary scripts run
// in phase-folder order, retry-eligible scripts go through the dependency
// resolver, security policies run strictly after those, and data scripts run
// inside the foreign-key guard.
type ScriptSet struct {
	Ordinary         []Script
	RetryEligible    []Script
	SecurityPolicies []Script
	Data             []Script
}

// Total returns the number of discovered scripts.
func (s *ScriptSet) Total() int {
	return len(s.Ordinary) + len(s.RetryEligible) + len(s.SecurityPolicies) + len(s.Data)
}

const (
	securityPolicyDir = "15_security_policies"
	dataDir           = "16_data"
)

// ScanScripts walks the input tree's known phase folders in apply order and
// classifies every .sql file. retryKinds names the kinds routed through the
// dependency resolver; unknown folders are ignored.
func ScanScripts(root string, retryKinds []string) (*ScriptSet, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", root)
	}

	retry := make(map[inventory.Kind]bool, len(retryKinds))
	for _, k := range retryKinds {
		retry[inventory.Kind(k)] = true
	}

	set := &ScriptSet{}
	for _, phaseDir := range inventory.PhaseDirs() {
		dir := filepath.Join(root, phaseDir)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read phase folder %s: %w", phaseDir, err)
		}

		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			s := Script{
				Path:     filepath.Join(dir, name),
				RelPath:  phaseDir + "/" + name,
				PhaseDir: phaseDir,
				Kind:     kindFromFilename(phaseDir, name),
			}
			switch {
			case phaseDir == dataDir:
				set.Data = append(set.Data, s)
			case phaseDir == securityPolicyDir:
				set.SecurityPolicies = append(set.SecurityPolicies, s)
			case retry[s.Kind]:
				set.RetryEligible = append(set.RetryEligible, s)
			default:
				set.Ordinary = append(set.Ordinary, s)
			}
		}
	}

	return set, nil
}

// kindFromFilename recovers the object kind from an exported filename. All
// grouping modes place the kind token as a dot-separated segment, so it is
// found by matching segments against the folder's known kinds.
func kindFromFilename(phaseDir, name string) inventory.Kind {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	candidates := inventory.KindsForPhaseDir(phaseDir)
	for _, seg := range strings.Split(base, ".") {
		for _, k := range candidates {
			if seg == string(k) {
				return k
			}
		}
	}
	return ""
}
