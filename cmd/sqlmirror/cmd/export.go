package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/sqlmirror/internal/config"
	"github.com/dbsmedya/sqlmirror/internal/exporter"
	"github.com/dbsmedya/sqlmirror/internal/logger"
)

var (
	exportOutputDir string
	exportDeltaFrom string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export schema and data scripts from the source database",
	Long: `Export scripts the source database's objects into a phase-numbered
directory tree that the import command applies in dependency order.

The export process follows these steps:
  1. Snapshot the object inventory in one batched catalog query
  2. Build work items per the configured grouping modes and filters
  3. In delta mode, classify objects against the previous export
  4. Script every item (sequentially or on a worker pool)
  5. Write the export metadata document on full success

Example:
  sqlmirror export --config sqlmirror.yaml --output ./out`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutputDir, "output", "o", "",
		"Override output directory")
	exportCmd.Flags().StringVar(&exportDeltaFrom, "delta-from", "",
		"Previous export directory for delta mode")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadAndPrepare()
	if err != nil {
		return err
	}
	if exportOutputDir != "" {
		cfg.Export.OutputDir = exportOutputDir
	}
	if exportDeltaFrom != "" {
		cfg.Export.DeltaFrom = exportDeltaFrom
	}

	log.Infow("Starting export",
		"source", cfg.Source.Host,
		"database", cfg.Source.Database,
		"output", cfg.Export.OutputDir,
		"delta", cfg.Export.DeltaFrom != "",
	)

	ctx := context.Background()

	// A started run always completes; the signal only announces that the
	// process exits once the current run finishes.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Received shutdown signal - current run will complete before exit")
	}()

	summary, err := exporter.New(cfg, log).Run(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Printf("\n=== Export Complete ===\n")
	fmt.Printf("Objects: %d\n", summary.ObjectCount)
	fmt.Printf("Work Items: %d\n", summary.ItemCount)
	color.Green.Printf("Succeeded: %d\n", summary.Succeeded)
	if summary.Failed > 0 {
		color.Red.Printf("Failed: %d\n", summary.Failed)
	} else {
		fmt.Printf("Failed: 0\n")
	}
	if summary.CopiedUnchanged > 0 {
		fmt.Printf("Copied Unchanged: %d\n", summary.CopiedUnchanged)
	}
	if summary.DeletedReported > 0 {
		color.Yellow.Printf("Deleted On Source (not removed): %d\n", summary.DeletedReported)
	}
	fmt.Printf("Metadata Written: %v\n", summary.MetadataWritten)
	fmt.Printf("Duration: %s\n", summary.Duration)

	if len(summary.Errors) > 0 {
		fmt.Printf("\nErrors:\n")
		for _, e := range summary.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if summary.FailureCount() > 0 {
		return fmt.Errorf("export completed with %d failures", summary.FailureCount())
	}
	return nil
}

// loadAndPrepare loads the config file, applies CLI overrides, validates,
// and builds the logger. Shared by every subcommand that runs against it.
func loadAndPrepare() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.Workers, overrides.Parallel, overrides.IncludeData)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}
