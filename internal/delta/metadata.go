// Package delta implements incremental export: the persisted export metadata
// document and the change detector that compares it against the live
// inventory.
package delta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dbsmedya/sqlmirror/internal/inventory"
)

// FormatVersion is the metadata document version this build reads and writes.
const FormatVersion = 1

// ObjectRecord is the persisted unit of comparison for delta detection,
// keyed by (kind, ownerGroup, name).
type ObjectRecord struct {
	Kind       string `json:"kind"`
	OwnerGroup string `json:"ownerGroup,omitempty"`
	Name       string `json:"name"`
	FilePath   string `json:"filePath"`
}

// Key returns the comparison key matching inventory.ObjectRef.Key.
func (r ObjectRecord) Key() string {
	return fmt.Sprintf("%s|%s|%s", r.Kind, r.OwnerGroup, r.Name)
}

// FileGroupDescriptor records a filegroup present at export time.
type FileGroupDescriptor struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// ExportMetadata is the sole artifact persisted across runs. A later run's
// change detector reads it back to classify the live inventory.
type ExportMetadata struct {
	FormatVersion        int                   `json:"formatVersion"`
	ExportStartTimeUtc   time.Time             `json:"exportStartTimeUtc"`
	ExportStartTimeLocal time.Time             `json:"exportStartTimeLocal"`
	SourceServer         string                `json:"sourceServer"`
	SourceDatabase       string                `json:"sourceDatabase"`
	GroupingMode         string                `json:"groupingMode"`
	IncludesData         bool                  `json:"includesData"`
	ObjectCount          int                   `json:"objectCount"`
	Objects              []ObjectRecord        `json:"objects"`
	FileGroupDescriptors []FileGroupDescriptor `json:"fileGroupDescriptors"`
}

// MetadataFileName is where the document lives inside an export tree.
const MetadataFileName = "export_metadata.json"

// NewMetadata starts a metadata document for the current run.
func NewMetadata(server, database, groupingMode string, includesData bool, start time.Time) *ExportMetadata {
	return &ExportMetadata{
		FormatVersion:        FormatVersion,
		ExportStartTimeUtc:   start.UTC(),
		ExportStartTimeLocal: start.Local(),
		SourceServer:         server,
		SourceDatabase:       database,
		GroupingMode:         groupingMode,
		IncludesData:         includesData,
	}
}

// AddObject records one exported object and its relative file path.
func (m *ExportMetadata) AddObject(ref inventory.ObjectRef, relativePath string) {
	m.Objects = append(m.Objects, ObjectRecord{
		Kind:       string(ref.Kind),
		OwnerGroup: ref.Owner,
		Name:       ref.Name,
		FilePath:   relativePath,
	})
	m.ObjectCount = len(m.Objects)
}

// Save writes the document to dir/MetadataFileName.
func (m *ExportMetadata) Save(dir string) error {
	m.ObjectCount = len(m.Objects)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export metadata: %w", err)
	}

	path := filepath.Join(dir, MetadataFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export metadata: %w", err)
	}
	return nil
}

// LoadMetadata reads and validates a metadata document.
func LoadMetadata(path string) (*ExportMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export metadata %s: %w", path, err)
	}

	var m ExportMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse export metadata %s: %w", path, err)
	}

	if m.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported metadata format version %d (expected %d)",
			m.FormatVersion, FormatVersion)
	}

	return &m, nil
}
