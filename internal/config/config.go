// Package config provides configuration structures and loading for sqlmirror.
package config

// Config represents the complete application configuration.
type Config struct {
	Source  ConnectionConfig `yaml:"source" mapstructure:"source"`
	Target  ConnectionConfig `yaml:"target" mapstructure:"target"`
	Export  ExportConfig     `yaml:"export" mapstructure:"export"`
	Import  ImportConfig     `yaml:"import" mapstructure:"import"`
	Retry   RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Logging LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// ConnectionConfig represents a SQL Server connection configuration.
type ConnectionConfig struct {
	Host                  string `yaml:"host" mapstructure:"host"`
	Port                  int    `yaml:"port" mapstructure:"port"`
	User                  string `yaml:"user" mapstructure:"user"`
	Password              string `yaml:"password" mapstructure:"password"`
	Database              string `yaml:"database" mapstructure:"database"`
	Encrypt               string `yaml:"encrypt" mapstructure:"encrypt"` // disable, optional, mandatory
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds" mapstructure:"connect_timeout_seconds"`
	CommandTimeoutSeconds int    `yaml:"command_timeout_seconds" mapstructure:"command_timeout_seconds"`
}

// ExportConfig controls the schema export run.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`

	// GroupingMode is the default grouping policy: single, by_schema, or all.
	GroupingMode string `yaml:"grouping_mode" mapstructure:"grouping_mode"`
	// GroupingModes overrides the default per object kind.
	GroupingModes map[string]string `yaml:"grouping_modes" mapstructure:"grouping_modes"`

	// IncludeKinds and ExcludeKinds are mutually exclusive whitelist/blacklist
	// of object-kind names.
	IncludeKinds []string `yaml:"include_kinds" mapstructure:"include_kinds"`
	ExcludeKinds []string `yaml:"exclude_kinds" mapstructure:"exclude_kinds"`

	// IncludeNames and ExcludeNames are glob patterns matched against
	// "owner.name" (or "name" for ownerless kinds).
	IncludeNames []string `yaml:"include_names" mapstructure:"include_names"`
	ExcludeNames []string `yaml:"exclude_names" mapstructure:"exclude_names"`

	IncludeData bool `yaml:"include_data" mapstructure:"include_data"`

	// DeltaFrom points at a previous export's output directory. Empty
	// disables delta mode.
	DeltaFrom string `yaml:"delta_from" mapstructure:"delta_from"`

	Parallel ParallelConfig `yaml:"parallel" mapstructure:"parallel"`
}

// ParallelConfig controls the parallel execution engine.
type ParallelConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	Workers int  `yaml:"workers" mapstructure:"workers"`
}

// ImportConfig controls the import run.
type ImportConfig struct {
	InputDir        string `yaml:"input_dir" mapstructure:"input_dir"`
	ContinueOnError bool   `yaml:"continue_on_error" mapstructure:"continue_on_error"`

	DependencyRetry DependencyRetryConfig `yaml:"dependency_retry" mapstructure:"dependency_retry"`
}

// DependencyRetryConfig controls the multi-pass resolver for scripts whose
// success depends on execution order.
type DependencyRetryConfig struct {
	Enabled   bool     `yaml:"enabled" mapstructure:"enabled"`
	MaxPasses int      `yaml:"max_passes" mapstructure:"max_passes"`
	Kinds     []string `yaml:"kinds" mapstructure:"kinds"`
}

// RetryConfig controls transient-fault retry at the connection boundary.
type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelayMs int `yaml:"initial_delay_ms" mapstructure:"initial_delay_ms"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// Grouping mode names accepted in configuration.
const (
	GroupingSingle   = "single"
	GroupingBySchema = "by_schema"
	GroupingAll      = "all"
)

// MaxWorkers is the hard cap on parallel worker count.
const MaxWorkers = 20

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: ConnectionConfig{
			Port:                  1433,
			Encrypt:               "optional",
			ConnectTimeoutSeconds: 15,
			CommandTimeoutSeconds: 300,
		},
		Target: ConnectionConfig{
			Port:                  1433,
			Encrypt:               "optional",
			ConnectTimeoutSeconds: 15,
			CommandTimeoutSeconds: 300,
		},
		Export: ExportConfig{
			OutputDir:    "export",
			GroupingMode: GroupingSingle,
			Parallel: ParallelConfig{
				Enabled: false,
				Workers: 5,
			},
		},
		Import: ImportConfig{
			InputDir:        "export",
			ContinueOnError: false,
			DependencyRetry: DependencyRetryConfig{
				Enabled:   true,
				MaxPasses: 5,
				Kinds:     []string{"function", "view", "procedure"},
			},
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialDelayMs: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// GroupingModeFor returns the effective grouping mode for a kind name,
// falling back to the export-wide default.
func (ec *ExportConfig) GroupingModeFor(kind string) string {
	if mode, ok := ec.GroupingModes[kind]; ok && mode != "" {
		return mode
	}
	if ec.GroupingMode == "" {
		return GroupingSingle
	}
	return ec.GroupingMode
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, workers int, parallel, includeData bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if workers > 0 {
		c.Export.Parallel.Workers = workers
	}
	if parallel {
		c.Export.Parallel.Enabled = true
	}
	if includeData {
		c.Export.IncludeData = true
	}
}
