package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/sqlmirror/internal/database"
	"github.com/dbsmedya/sqlmirror/internal/inventory"
	"github.com/dbsmedya/sqlmirror/internal/workitem"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the export execution plan",
	Long: `Plan snapshots the source inventory, builds the work-item list, and
displays what an export run would script without writing any files.

The plan shows:
  - Object counts per kind
  - Work items per phase folder with their grouping mode
  - Effective filters and parallelism settings

Example:
  sqlmirror plan --config sqlmirror.yaml`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadAndPrepare()
	if err != nil {
		return err
	}

	ctx := context.Background()

	dbManager := database.NewManager(cfg)
	if err := dbManager.ConnectSource(ctx); err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer dbManager.Close()

	source, err := inventory.NewSQLSource(dbManager.Source)
	if err != nil {
		return err
	}
	snap, err := source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("inventory snapshot failed: %w", err)
	}
	log.Infow("Inventory snapshot taken", "objects", snap.Count())

	builder, err := workitem.NewBuilder(&cfg.Export)
	if err != nil {
		return err
	}
	items, err := builder.Build(snap)
	if err != nil {
		return err
	}

	printHeader("Export Plan: %s/%s", cfg.Source.Host, cfg.Source.Database)

	fmt.Fprintln(outputWriter)
	printSection("Overview")
	fmt.Fprintf(outputWriter, "  Objects:    %d\n", snap.Count())
	fmt.Fprintf(outputWriter, "  Work Items: %d\n", len(items))
	fmt.Fprintf(outputWriter, "  Output:     %s\n", cfg.Export.OutputDir)
	if cfg.Export.DeltaFrom != "" {
		fmt.Fprintf(outputWriter, "  Delta From: %s\n", cfg.Export.DeltaFrom)
	}
	if cfg.Export.Parallel.Enabled {
		fmt.Fprintf(outputWriter, "  Parallel:   %d workers\n", cfg.Export.Parallel.Workers)
	} else {
		fmt.Fprintf(outputWriter, "  Parallel:   disabled\n")
	}

	fmt.Fprintln(outputWriter)
	printSection("Phases")
	printPhaseTable(items)

	return nil
}

type phaseRow struct {
	objects int
	items   int
	modes   map[string]bool
}

// printPhaseTable prints one aligned row per phase folder in apply order.
func printPhaseTable(items []workitem.WorkItem) {
	rows := orderedmap.NewOrderedMap[string, *phaseRow]()
	for _, dir := range inventory.PhaseDirs() {
		rows.Set(dir, &phaseRow{modes: make(map[string]bool)})
	}

	for _, item := range items {
		dir := item.OutputPath[:strings.Index(item.OutputPath, "/")]
		row, ok := rows.Get(dir)
		if !ok {
			continue
		}
		row.items++
		row.objects += len(item.Objects)
		row.modes[string(item.Grouping)] = true
	}

	headers := []string{"Phase", "Items", "Objects", "Grouping"}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}

	type tableRow [4]string
	var table []tableRow
	for el := rows.Front(); el != nil; el = el.Next() {
		if el.Value.items == 0 {
			continue
		}
		var modes []string
		for m := range el.Value.modes {
			modes = append(modes, m)
		}
		r := tableRow{
			el.Key,
			fmt.Sprintf("%d", el.Value.items),
			fmt.Sprintf("%d", el.Value.objects),
			strings.Join(modes, ","),
		}
		for i, cell := range r {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
		table = append(table, r)
	}

	printRow := func(cells [4]string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintf(outputWriter, "  %s\n", strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow([4]string{headers[0], headers[1], headers[2], headers[3]})
	total := 0
	for i := range widths {
		total += widths[i] + 2
	}
	fmt.Fprintf(outputWriter, "  %s\n", strings.Repeat("-", total))
	for _, r := range table {
		printRow(r)
	}
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := len(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", len(title)+2))
}
