package workitem

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dbsmedya/sqlmirror/internal/config"
	"github.com/dbsmedya/sqlmirror/internal/inventory"
)

func testSnapshot() *inventory.Snapshot {
	snap := inventory.NewSnapshot(time.Now())
	snap.Add(inventory.ObjectRef{Kind: inventory.KindSchema, Name: "sales"})
	snap.Add(inventory.ObjectRef{Kind: inventory.KindTable, Owner: "dbo", Name: "Orders"})
	snap.Add(inventory.ObjectRef{Kind: inventory.KindTable, Owner: "dbo", Name: "Customers"})
	snap.Add(inventory.ObjectRef{Kind: inventory.KindTable, Owner: "sales", Name: "Invoices"})
	snap.Add(inventory.ObjectRef{
		Kind: inventory.KindForeignKey, Owner: "dbo", Name: "FK_Orders_Customers",
		ParentOwner: "dbo", ParentName: "Orders",
	})
	snap.Add(inventory.ObjectRef{
		Kind: inventory.KindIndex, Owner: "dbo", Name: "IX_Orders_Date",
		ParentOwner: "dbo", ParentName: "Orders",
	})
	snap.Add(inventory.ObjectRef{Kind: inventory.KindView, Owner: "dbo", Name: "V1"})
	snap.Add(inventory.ObjectRef{Kind: inventory.KindFunction, Owner: "dbo", Name: "F1"})
	return snap
}

func exportConfig() *config.ExportConfig {
	cfg := config.DefaultConfig()
	return &cfg.Export
}

func TestBuild_SingleMode(t *testing.T) {
	b, err := NewBuilder(exportConfig())
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	items, err := b.Build(testSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// One item per object
	if len(items) != 8 {
		t.Fatalf("expected 8 items, got %d", len(items))
	}

	byPath := make(map[string]WorkItem)
	for _, item := range items {
		if len(item.Objects) != 1 {
			t.Errorf("single mode item %s has %d objects", item.ID, len(item.Objects))
		}
		byPath[item.OutputPath] = item
	}

	if _, ok := byPath["07_tables/table.dbo.Orders.sql"]; !ok {
		t.Errorf("missing expected table path, got paths: %v", paths(items))
	}
	if _, ok := byPath["03_schemas/schema.sales.sql"]; !ok {
		t.Errorf("missing expected schema path, got paths: %v", paths(items))
	}

	// Parent-scoped kinds are filed under their owning table
	fk, ok := byPath["08_foreign_keys/foreign_key.dbo.Orders.FK_Orders_Customers.sql"]
	if !ok {
		t.Fatalf("missing expected FK path, got paths: %v", paths(items))
	}
	if fk.Objects[0].ParentName != "Orders" {
		t.Errorf("FK item lost its parent table")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	b, _ := NewBuilder(exportConfig())

	first, err := b.Build(testSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := b.Build(testSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !reflect.DeepEqual(paths(first), paths(second)) {
		t.Errorf("path assignment not deterministic:\n%v\n%v", paths(first), paths(second))
	}
}

func TestBuild_UniqueOutputPaths(t *testing.T) {
	b, _ := NewBuilder(exportConfig())
	items, err := b.Build(testSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, item := range items {
		if seen[item.OutputPath] {
			t.Errorf("duplicate output path: %s", item.OutputPath)
		}
		seen[item.OutputPath] = true
	}
}

func TestBuild_BySchemaMode(t *testing.T) {
	cfg := exportConfig()
	cfg.GroupingModes = map[string]string{"table": config.GroupingBySchema}

	b, _ := NewBuilder(cfg)
	items, err := b.Build(testSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var tableItems []WorkItem
	for _, item := range items {
		if item.Kind == inventory.KindTable {
			tableItems = append(tableItems, item)
		}
	}

	if len(tableItems) != 2 {
		t.Fatalf("expected 2 table groups (dbo, sales), got %d", len(tableItems))
	}
	// Numbered deterministically by sorted group name: dbo before sales
	if tableItems[0].OutputPath != "07_tables/01_dbo.table.sql" {
		t.Errorf("unexpected first group path: %s", tableItems[0].OutputPath)
	}
	if tableItems[1].OutputPath != "07_tables/02_sales.table.sql" {
		t.Errorf("unexpected second group path: %s", tableItems[1].OutputPath)
	}
	if len(tableItems[0].Objects) != 2 {
		t.Errorf("expected 2 dbo tables in group, got %d", len(tableItems[0].Objects))
	}
}

func TestBuild_AllMode(t *testing.T) {
	cfg := exportConfig()
	cfg.GroupingModes = map[string]string{"table": config.GroupingAll}

	b, _ := NewBuilder(cfg)
	items, err := b.Build(testSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, item := range items {
		if item.Kind != inventory.KindTable {
			continue
		}
		if item.OutputPath != "07_tables/all.table.sql" {
			t.Errorf("unexpected all-mode path: %s", item.OutputPath)
		}
		if len(item.Objects) != 3 {
			t.Errorf("expected 3 tables in item, got %d", len(item.Objects))
		}
		return
	}
	t.Fatal("no table item found")
}

func TestBuild_KindFilters(t *testing.T) {
	cfg := exportConfig()
	cfg.IncludeKinds = []string{"table"}

	b, _ := NewBuilder(cfg)
	items, err := b.Build(testSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, item := range items {
		if item.Kind != inventory.KindTable {
			t.Errorf("whitelist leaked kind %s", item.Kind)
		}
	}
	if len(items) != 3 {
		t.Errorf("expected 3 table items, got %d", len(items))
	}

	cfg2 := exportConfig()
	cfg2.ExcludeKinds = []string{"view", "function"}
	b2, _ := NewBuilder(cfg2)
	items2, _ := b2.Build(testSnapshot())
	for _, item := range items2 {
		if item.Kind == inventory.KindView || item.Kind == inventory.KindFunction {
			t.Errorf("blacklist leaked kind %s", item.Kind)
		}
	}
}

func TestBuild_NameFilters(t *testing.T) {
	cfg := exportConfig()
	cfg.ExcludeNames = []string{"dbo.Orders"}

	b, _ := NewBuilder(cfg)
	items, err := b.Build(testSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, item := range items {
		for _, obj := range item.Objects {
			if obj.Kind == inventory.KindTable && obj.QualifiedName() == "dbo.Orders" {
				t.Error("excluded name leaked through")
			}
		}
	}
}

func TestBuild_DataItems(t *testing.T) {
	cfg := exportConfig()
	cfg.IncludeData = true

	b, _ := NewBuilder(cfg)
	items, err := b.Build(testSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var dataItems []WorkItem
	for _, item := range items {
		if item.Kind == inventory.KindData {
			dataItems = append(dataItems, item)
		}
	}

	if len(dataItems) != 3 {
		t.Fatalf("expected one data item per table, got %d", len(dataItems))
	}
	for _, item := range dataItems {
		if item.Special != SpecialData {
			t.Errorf("data item %s missing special handling", item.ID)
		}
		if !strings.HasPrefix(item.OutputPath, "16_data/") {
			t.Errorf("data item in wrong phase dir: %s", item.OutputPath)
		}
	}
}

func TestBuild_NoDataWithoutFlag(t *testing.T) {
	b, _ := NewBuilder(exportConfig())
	items, _ := b.Build(testSnapshot())
	for _, item := range items {
		if item.Kind == inventory.KindData {
			t.Fatal("data items emitted without include_data")
		}
	}
}

func TestNewBuilder_UnknownKindFilter(t *testing.T) {
	cfg := exportConfig()
	cfg.IncludeKinds = []string{"spaceship"}
	if _, err := NewBuilder(cfg); err == nil {
		t.Fatal("expected error for unknown kind in filter")
	}
}

func TestBuild_FacetOptions(t *testing.T) {
	b, _ := NewBuilder(exportConfig())
	items, _ := b.Build(testSnapshot())

	for _, item := range items {
		switch item.Kind {
		case inventory.KindTable:
			if item.Options["primary_key"] != "true" {
				t.Errorf("table item missing primary_key option")
			}
		case inventory.KindForeignKey:
			if item.Options["facet"] != "foreign_keys" {
				t.Errorf("FK item missing facet option")
			}
		case inventory.KindIndex:
			if item.Options["facet"] != "indexes" {
				t.Errorf("index item missing facet option")
			}
		}
	}
}

func paths(items []WorkItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.OutputPath
	}
	return out
}
