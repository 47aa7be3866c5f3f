package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/sqlmirror/internal/config"
	"github.com/dbsmedya/sqlmirror/internal/delta"
	"github.com/dbsmedya/sqlmirror/internal/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration without connecting",
	Long: `Validate checks the configuration file and, when delta mode is
configured, the previous export's metadata document. No database
connection is opened.

Checks performed:
  - Configuration syntax and required fields
  - Grouping modes, kind filters, and name patterns
  - Worker count bounds and retry parameters
  - Delta preconditions (metadata exists, parses, grouping is single)

Example:
  sqlmirror validate --config sqlmirror.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.Workers, overrides.Parallel, overrides.IncludeData)

	fmt.Printf("\n=== Configuration Validation ===\n")
	fmt.Printf("Config file: %s\n\n", configFile)

	hasErrors := false
	if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ Configuration invalid:\n%v\n\n", err)
		hasErrors = true
	} else {
		fmt.Printf("✅ Configuration valid\n\n")
	}

	if cfg.Export.DeltaFrom != "" {
		metaPath := filepath.Join(cfg.Export.DeltaFrom, delta.MetadataFileName)
		if _, err := delta.NewDetector(metaPath, cfg.Export.GroupingMode, logger.NewDefault()); err != nil {
			fmt.Printf("❌ Delta preconditions failed: %v\n\n", err)
			hasErrors = true
		} else {
			fmt.Printf("✅ Delta preconditions satisfied\n\n")
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	fmt.Println("=== Validation Complete ===")
	return nil
}
