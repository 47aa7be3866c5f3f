package importer

import (
	"reflect"
	"testing"
)

func TestSplitBatchesBasic(t *testing.T) {
	script := "CREATE TABLE A (Id INT);\nGO\nCREATE TABLE B (Id INT);\nGO\n"
	got := SplitBatches(script)
	want := []string{"CREATE TABLE A (Id INT);", "CREATE TABLE B (Id INT);"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("batches = %q, want %q", got, want)
	}
}

func TestSplitBatchesNoSeparator(t *testing.T) {
	got := SplitBatches("SELECT 1;\nSELECT 2;")
	if len(got) != 1 {
		t.Fatalf("expected 1 batch, got %d: %q", len(got), got)
	}
}

func TestSplitBatchesSeparatorVariants(t *testing.T) {
	cases := []string{
		"GO",
		"go",
		"Go",
		"  GO  ",
		"GO 5",
		"GO 10 -- repeat ignored",
		"GO -- end of batch",
		"\tGO\t",
	}
	for _, sep := range cases {
		script := "SELECT 1;\n" + sep + "\nSELECT 2;"
		got := SplitBatches(script)
		if len(got) != 2 {
			t.Errorf("separator %q: expected 2 batches, got %d: %q", sep, len(got), got)
		}
	}
}

// A repeat count on the separator never duplicates the batch.
func TestSplitBatchesRepeatCountExecutedOnce(t *testing.T) {
	got := SplitBatches("INSERT INTO T VALUES (1);\nGO 100\n")
	if len(got) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(got))
	}
}

func TestSplitBatchesNotASeparator(t *testing.T) {
	cases := []string{
		"SELECT 'GO';",
		"-- GO home",
		"GOTO label",
		"GO 5x",
		"PRINT 'before GO after';",
	}
	for _, line := range cases {
		script := "SELECT 1;\n" + line + "\nSELECT 2;"
		got := SplitBatches(script)
		if len(got) != 1 {
			t.Errorf("line %q must not split: got %d batches %q", line, len(got), got)
		}
	}
}

func TestSplitBatchesCRLF(t *testing.T) {
	got := SplitBatches("SELECT 1;\r\nGO\r\nSELECT 2;\r\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 batches, got %d: %q", len(got), got)
	}
}

func TestSplitBatchesEmptyAndWhitespaceOnly(t *testing.T) {
	if got := SplitBatches(""); len(got) != 0 {
		t.Errorf("empty script: got %q", got)
	}
	if got := SplitBatches("\nGO\n\nGO\n"); len(got) != 0 {
		t.Errorf("separator-only script: got %q", got)
	}
}
