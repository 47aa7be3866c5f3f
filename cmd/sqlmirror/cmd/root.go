package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile     string
	logLevel    string
	logFormat   string
	workers     int
	parallel    bool
	includeData bool
)

var rootCmd = &cobra.Command{
	Use:   "sqlmirror",
	Short: "SQL Server Schema & Data Replicator",
	Long: `A production-grade CLI tool for replicating SQL Server schemas and data
between servers via dependency-ordered per-object script files.

Features:
  - Phase-numbered export tree applied in dependency order
  - Parallel scripting with per-worker dedicated connections
  - Delta export reusing unchanged files from a previous run
  - Multi-pass import retry for forward object references
  - Foreign-key guard around bulk data load`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "sqlmirror.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Execution overrides
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Override parallel worker count")
	rootCmd.PersistentFlags().BoolVar(&parallel, "parallel", false,
		"Enable parallel execution")
	rootCmd.PersistentFlags().BoolVar(&includeData, "include-data", false,
		"Include table data in the export")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel    string
	LogFormat   string
	Workers     int
	Parallel    bool
	IncludeData bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		Workers:     workers,
		Parallel:    parallel,
		IncludeData: includeData,
	}
}
