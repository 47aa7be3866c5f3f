package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/sqlmirror/internal/database"
	"github.com/dbsmedya/sqlmirror/internal/importer"
)

var importInputDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Apply an exported script tree to the target database",
	Long: `Import applies a previously exported script tree to the target
database in phase-folder order.

The import process follows these steps:
  1. Apply ordinary phases (schemas, tables, constraints, indexes, ...)
  2. Resolve programmable objects in bounded retry passes
  3. Apply row-level security policies
  4. Load data with foreign keys suspended, then re-validate them

Example:
  sqlmirror import --config sqlmirror.yaml --input ./out`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importInputDir, "input", "i", "",
		"Override input directory")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadAndPrepare()
	if err != nil {
		return err
	}
	if importInputDir != "" {
		cfg.Import.InputDir = importInputDir
	}

	log.Infow("Starting import",
		"target", cfg.Target.Host,
		"database", cfg.Target.Database,
		"input", cfg.Import.InputDir,
	)

	ctx := context.Background()

	dbManager := database.NewManager(cfg)
	if err := dbManager.ConnectTarget(ctx); err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer dbManager.Close()

	// The signal never interrupts a running phase; the runner polls the flag
	// between phases.
	var stopFlag atomic.Bool
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Received shutdown signal - completing current phase...")
		stopFlag.Store(true)
	}()

	exec := importer.NewSQLExecutor(dbManager.Target, dbManager.CommandTimeout(true))
	runner := importer.NewRunner(dbManager.Target, exec, &cfg.Import, log)
	runner.StopRequested = stopFlag.Load

	summary, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("\n=== Import Complete ===\n")
	color.Green.Printf("Scripts Applied: %d\n", summary.ScriptsApplied)
	if summary.ScriptsFailed > 0 {
		color.Red.Printf("Scripts Failed: %d\n", summary.ScriptsFailed)
	} else {
		fmt.Printf("Scripts Failed: 0\n")
	}
	if summary.ResolverPasses > 0 {
		fmt.Printf("Resolver Passes: %d\n", summary.ResolverPasses)
	}
	fmt.Printf("Foreign Keys Suspended: %d\n", summary.FkSuspended)
	if summary.FkValidationFailures > 0 {
		color.Red.Printf("Foreign Key Validation Failures: %d\n", summary.FkValidationFailures)
	}
	fmt.Printf("Duration: %s\n", summary.Duration)

	if len(summary.Errors) > 0 {
		fmt.Printf("\nErrors:\n")
		for _, e := range summary.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if summary.FailureCount() > 0 {
		return fmt.Errorf("import completed with %d failures", summary.FailureCount())
	}
	return nil
}
