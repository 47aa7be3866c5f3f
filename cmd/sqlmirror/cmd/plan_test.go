package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dbsmedya/sqlmirror/internal/inventory"
	"github.com/dbsmedya/sqlmirror/internal/workitem"
)

func TestPlanCommandStructure(t *testing.T) {
	assert.NotNil(t, planCmd)
	assert.Equal(t, "plan", planCmd.Use)
	assert.NotEmpty(t, planCmd.Short)
	assert.NotEmpty(t, planCmd.Long)
	assert.NotNil(t, planCmd.RunE)
}

func TestPlanIsAddedToRoot(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "plan" {
			found = true
			break
		}
	}
	assert.True(t, found, "plan command should be added to root command")
}

func TestPrintHeader(t *testing.T) {
	var buf bytes.Buffer
	setOutputWriter(&buf)
	defer resetOutputWriter()

	printHeader("Export Plan: %s", "db01/Northwind")

	output := buf.String()
	assert.Contains(t, output, "Export Plan: db01/Northwind")
	assert.Contains(t, output, "====")
}

func TestPrintSection(t *testing.T) {
	var buf bytes.Buffer
	setOutputWriter(&buf)
	defer resetOutputWriter()

	printSection("Phases")

	output := buf.String()
	assert.Contains(t, output, "[Phases]")
	assert.Contains(t, output, "--------")
}

func TestPrintPhaseTable(t *testing.T) {
	var buf bytes.Buffer
	setOutputWriter(&buf)
	defer resetOutputWriter()

	items := []workitem.WorkItem{
		{
			Kind:       inventory.KindTable,
			Grouping:   workitem.GroupSingle,
			Objects:    []inventory.ObjectRef{{Kind: inventory.KindTable, Owner: "dbo", Name: "Orders"}},
			OutputPath: "07_tables/table.dbo.Orders.sql",
		},
		{
			Kind:       inventory.KindTable,
			Grouping:   workitem.GroupSingle,
			Objects:    []inventory.ObjectRef{{Kind: inventory.KindTable, Owner: "dbo", Name: "Customers"}},
			OutputPath: "07_tables/table.dbo.Customers.sql",
		},
		{
			Kind:     inventory.KindView,
			Grouping: workitem.GroupAll,
			Objects: []inventory.ObjectRef{
				{Kind: inventory.KindView, Owner: "dbo", Name: "V1"},
				{Kind: inventory.KindView, Owner: "dbo", Name: "V2"},
			},
			OutputPath: "11_programmability/all.view.sql",
		},
	}

	printPhaseTable(items)

	output := buf.String()
	assert.Contains(t, output, "Phase")
	assert.Contains(t, output, "07_tables")
	assert.Contains(t, output, "11_programmability")
	// empty phases are omitted
	assert.NotContains(t, output, "16_data")

	// table phase row carries its item and object counts
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "07_tables") {
			assert.Contains(t, line, "2")
			assert.Contains(t, line, "single")
		}
		if strings.Contains(line, "11_programmability") {
			assert.Contains(t, line, "all")
		}
	}
}
