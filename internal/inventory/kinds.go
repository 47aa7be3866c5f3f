// Package inventory models the database object inventory that drives export
// and import runs.
package inventory

// Kind identifies a category of database object.
type Kind string

// Object kinds, in target-apply order.
const (
	KindFilegroup          Kind = "filegroup"
	KindSecurityPrincipal  Kind = "security_principal"
	KindConfiguration      Kind = "configuration"
	KindSchema             Kind = "schema"
	KindSequence           Kind = "sequence"
	KindPartitionFunction  Kind = "partition_function"
	KindPartitionScheme    Kind = "partition_scheme"
	KindUserType           Kind = "user_type"
	KindTable              Kind = "table"
	KindForeignKey         Kind = "foreign_key"
	KindIndex              Kind = "index"
	KindDefault            Kind = "default"
	KindRule               Kind = "rule"
	KindFunction           Kind = "function"
	KindProcedure          Kind = "procedure"
	KindTrigger            Kind = "trigger"
	KindView               Kind = "view"
	KindSynonym            Kind = "synonym"
	KindFullTextCatalog    Kind = "fulltext_catalog"
	KindExternalDataSource Kind = "external_data_source"
	KindSecurityPolicy     Kind = "security_policy"
	KindData               Kind = "data"
)

// KindSpec describes the fixed per-kind policy the rest of the system keys on.
type KindSpec struct {
	Kind Kind

	// PhaseDir is the numbered output folder; folder order is the apply order.
	PhaseDir string

	// Timestamped kinds carry a reliable modify_date in the catalog and
	// participate in delta comparison. Everything else is always exported.
	Timestamped bool

	// ParentScoped kinds are addressed through their owning table, so their
	// identifiers carry a parent table plus a child object name.
	ParentScoped bool

	// RetryEligible kinds may reference each other and go through the import
	// dependency resolver by default.
	RetryEligible bool
}

// kindSpecs is the single authoritative per-kind table. The builder, the
// execution strategies, and the importer all resolve kinds through it.
var kindSpecs = []KindSpec{
	{Kind: KindFilegroup, PhaseDir: "00_filegroups"},
	{Kind: KindSecurityPrincipal, PhaseDir: "01_security"},
	{Kind: KindConfiguration, PhaseDir: "02_configuration"},
	{Kind: KindSchema, PhaseDir: "03_schemas"},
	{Kind: KindSequence, PhaseDir: "04_sequences", Timestamped: true},
	{Kind: KindPartitionFunction, PhaseDir: "05_partitions"},
	{Kind: KindPartitionScheme, PhaseDir: "05_partitions"},
	{Kind: KindUserType, PhaseDir: "06_types"},
	{Kind: KindTable, PhaseDir: "07_tables", Timestamped: true},
	{Kind: KindForeignKey, PhaseDir: "08_foreign_keys", ParentScoped: true},
	{Kind: KindIndex, PhaseDir: "09_indexes", ParentScoped: true},
	{Kind: KindDefault, PhaseDir: "10_defaults_rules", Timestamped: true},
	{Kind: KindRule, PhaseDir: "10_defaults_rules", Timestamped: true},
	{Kind: KindFunction, PhaseDir: "11_programmability", Timestamped: true, RetryEligible: true},
	{Kind: KindProcedure, PhaseDir: "11_programmability", Timestamped: true, RetryEligible: true},
	{Kind: KindTrigger, PhaseDir: "11_programmability", Timestamped: true, ParentScoped: true},
	{Kind: KindView, PhaseDir: "11_programmability", Timestamped: true, RetryEligible: true},
	{Kind: KindSynonym, PhaseDir: "12_synonyms", Timestamped: true},
	{Kind: KindFullTextCatalog, PhaseDir: "13_fulltext"},
	{Kind: KindExternalDataSource, PhaseDir: "14_external", Timestamped: true},
	{Kind: KindSecurityPolicy, PhaseDir: "15_security_policies", Timestamped: true},
	{Kind: KindData, PhaseDir: "16_data"},
}

var specByKind = func() map[Kind]KindSpec {
	m := make(map[Kind]KindSpec, len(kindSpecs))
	for _, s := range kindSpecs {
		m[s.Kind] = s
	}
	return m
}()

// AllKinds returns every kind in apply order.
func AllKinds() []Kind {
	kinds := make([]Kind, len(kindSpecs))
	for i, s := range kindSpecs {
		kinds[i] = s.Kind
	}
	return kinds
}

// Spec returns the policy record for a kind. The second return is false for
// unknown kind names.
func Spec(kind Kind) (KindSpec, bool) {
	s, ok := specByKind[kind]
	return s, ok
}

// IsValid reports whether the kind name is known.
func IsValid(kind Kind) bool {
	_, ok := specByKind[kind]
	return ok
}

// AlwaysExportKinds returns the kinds lacking a trustworthy modification
// timestamp. These are unconditionally re-exported in delta mode.
func AlwaysExportKinds() []Kind {
	var kinds []Kind
	for _, s := range kindSpecs {
		if !s.Timestamped {
			kinds = append(kinds, s.Kind)
		}
	}
	return kinds
}

// PhaseDirs returns the distinct numbered output folders in apply order.
func PhaseDirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, s := range kindSpecs {
		if !seen[s.PhaseDir] {
			seen[s.PhaseDir] = true
			dirs = append(dirs, s.PhaseDir)
		}
	}
	return dirs
}

// KindsForPhaseDir returns the kinds whose output lands in the given folder.
func KindsForPhaseDir(dir string) []Kind {
	var kinds []Kind
	for _, s := range kindSpecs {
		if s.PhaseDir == dir {
			kinds = append(kinds, s.Kind)
		}
	}
	return kinds
}
