package inventory

import (
	"strings"
	"testing"
	"time"
)

func TestAllKinds_ApplyOrder(t *testing.T) {
	kinds := AllKinds()
	if len(kinds) == 0 {
		t.Fatal("expected kinds")
	}
	if kinds[0] != KindFilegroup {
		t.Errorf("expected filegroups first, got %s", kinds[0])
	}
	if kinds[len(kinds)-1] != KindData {
		t.Errorf("expected data last, got %s", kinds[len(kinds)-1])
	}

	// Foreign keys apply after tables, indexes after foreign keys,
	// security policies after programmability.
	pos := make(map[Kind]int)
	for i, k := range kinds {
		pos[k] = i
	}
	if pos[KindForeignKey] < pos[KindTable] {
		t.Error("foreign keys must come after tables")
	}
	if pos[KindIndex] < pos[KindForeignKey] {
		t.Error("indexes must come after foreign keys")
	}
	if pos[KindSecurityPolicy] < pos[KindFunction] {
		t.Error("security policies must come after functions")
	}
	if pos[KindData] < pos[KindSecurityPolicy] {
		t.Error("data must come last")
	}
}

func TestPhaseDirs_NumberedAndSorted(t *testing.T) {
	dirs := PhaseDirs()
	for i := 1; i < len(dirs); i++ {
		if !(dirs[i-1] < dirs[i]) {
			t.Errorf("phase dirs not in lexical order: %s before %s", dirs[i-1], dirs[i])
		}
	}
	for _, d := range dirs {
		if len(d) < 3 || d[2] != '_' {
			t.Errorf("phase dir %q not numbered NN_name", d)
		}
	}
}

func TestSpec_ParentScopedKinds(t *testing.T) {
	for _, kind := range []Kind{KindForeignKey, KindIndex, KindTrigger} {
		spec, ok := Spec(kind)
		if !ok {
			t.Fatalf("missing spec for %s", kind)
		}
		if !spec.ParentScoped {
			t.Errorf("%s must be parent-scoped", kind)
		}
	}

	spec, _ := Spec(KindTable)
	if spec.ParentScoped {
		t.Error("table must not be parent-scoped")
	}
}

func TestSpec_RetryEligibleDefaults(t *testing.T) {
	eligible := map[Kind]bool{KindFunction: true, KindView: true, KindProcedure: true}
	for _, s := range kindSpecs {
		if s.RetryEligible != eligible[s.Kind] {
			t.Errorf("%s: retry-eligible=%v, want %v", s.Kind, s.RetryEligible, eligible[s.Kind])
		}
	}
}

func TestAlwaysExportKinds(t *testing.T) {
	always := AlwaysExportKinds()
	set := make(map[Kind]bool)
	for _, k := range always {
		set[k] = true
	}

	// Kinds without trustworthy timestamps. sys.fulltext_catalogs and
	// sys.database_scoped_configurations have no modify_date column.
	for _, k := range []Kind{KindFilegroup, KindSchema, KindSecurityPrincipal,
		KindConfiguration, KindPartitionFunction, KindPartitionScheme,
		KindUserType, KindForeignKey, KindIndex, KindFullTextCatalog,
		KindData} {
		if !set[k] {
			t.Errorf("%s must be always-export", k)
		}
	}

	// Timestamped kinds must not be
	for _, k := range []Kind{KindTable, KindView, KindFunction, KindProcedure,
		KindExternalDataSource} {
		if set[k] {
			t.Errorf("%s must not be always-export", k)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(KindTable) {
		t.Error("table must be valid")
	}
	if IsValid(Kind("spaceship")) {
		t.Error("unknown kind must be invalid")
	}
}

func TestObjectRef_Key(t *testing.T) {
	ref := ObjectRef{Kind: KindView, Owner: "dbo", Name: "V1"}
	if ref.Key() != "view|dbo|V1" {
		t.Errorf("unexpected key: %s", ref.Key())
	}

	other := ObjectRef{Kind: KindView, Owner: "sales", Name: "V1"}
	if ref.Key() == other.Key() {
		t.Error("keys must distinguish owners")
	}
}

func TestObjectRef_QualifiedName(t *testing.T) {
	ref := ObjectRef{Kind: KindTable, Owner: "dbo", Name: "Orders"}
	if ref.QualifiedName() != "dbo.Orders" {
		t.Errorf("unexpected qualified name: %s", ref.QualifiedName())
	}

	ownerless := ObjectRef{Kind: KindFilegroup, Name: "PRIMARY"}
	if ownerless.QualifiedName() != "PRIMARY" {
		t.Errorf("unexpected qualified name: %s", ownerless.QualifiedName())
	}
}

func TestSnapshot_AddAndIterate(t *testing.T) {
	snap := NewSnapshot(time.Now())
	snap.Add(ObjectRef{Kind: KindView, Owner: "dbo", Name: "V1"})
	snap.Add(ObjectRef{Kind: KindTable, Owner: "dbo", Name: "T1"})
	snap.Add(ObjectRef{Kind: KindTable, Owner: "dbo", Name: "T2"})

	if snap.Count() != 3 {
		t.Errorf("expected 3 objects, got %d", snap.Count())
	}
	if got := len(snap.ByKind(KindTable)); got != 2 {
		t.Errorf("expected 2 tables, got %d", got)
	}

	// All() yields apply order regardless of insertion order: tables before views.
	all := snap.All()
	var order []string
	for _, r := range all {
		order = append(order, string(r.Kind))
	}
	joined := strings.Join(order, ",")
	if joined != "table,table,view" {
		t.Errorf("expected apply order, got %s", joined)
	}
}
