package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigFile(t *testing.T) {
	// Save original value and restore after test
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{
			name:     "default config file",
			cfgValue: "",
			want:     "",
		},
		{
			name:     "custom config file",
			cfgValue: "/path/to/custom.yaml",
			want:     "/path/to/custom.yaml",
		},
		{
			name:     "config file with spaces",
			cfgValue: "/path/to/my config.yaml",
			want:     "/path/to/my config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			got := GetConfigFile()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetCLIOverrides(t *testing.T) {
	// Save original values and restore after test
	originalLogLevel := logLevel
	originalLogFormat := logFormat
	originalWorkers := workers
	originalParallel := parallel
	originalIncludeData := includeData
	defer func() {
		logLevel = originalLogLevel
		logFormat = originalLogFormat
		workers = originalWorkers
		parallel = originalParallel
		includeData = originalIncludeData
	}()

	tests := []struct {
		name        string
		logLevel    string
		logFormat   string
		workers     int
		parallel    bool
		includeData bool
		want        CLIOverrides
	}{
		{
			name: "empty overrides",
			want: CLIOverrides{},
		},
		{
			name:        "all overrides set",
			logLevel:    "debug",
			logFormat:   "text",
			workers:     8,
			parallel:    true,
			includeData: true,
			want: CLIOverrides{
				LogLevel:    "debug",
				LogFormat:   "text",
				Workers:     8,
				Parallel:    true,
				IncludeData: true,
			},
		},
		{
			name:      "partial overrides",
			logLevel:  "warn",
			workers:   3,
			want: CLIOverrides{
				LogLevel: "warn",
				Workers:  3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logLevel = tt.logLevel
			logFormat = tt.logFormat
			workers = tt.workers
			parallel = tt.parallel
			includeData = tt.includeData

			got := GetCLIOverrides()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRootCommandStructure(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "sqlmirror", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Equal(t, Version, rootCmd.Version)
}

func TestRootCommandPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	configFlag, err := flags.GetString("config")
	assert.NoError(t, err)
	assert.Equal(t, "sqlmirror.yaml", configFlag)

	logLevelFlag, err := flags.GetString("log-level")
	assert.NoError(t, err)
	assert.Equal(t, "", logLevelFlag)

	logFormatFlag, err := flags.GetString("log-format")
	assert.NoError(t, err)
	assert.Equal(t, "", logFormatFlag)

	workersFlag, err := flags.GetInt("workers")
	assert.NoError(t, err)
	assert.Equal(t, 0, workersFlag)

	parallelFlag, err := flags.GetBool("parallel")
	assert.NoError(t, err)
	assert.Equal(t, false, parallelFlag)

	includeDataFlag, err := flags.GetBool("include-data")
	assert.NoError(t, err)
	assert.Equal(t, false, includeDataFlag)
}

func TestRootCommandSubcommands(t *testing.T) {
	commands := rootCmd.Commands()
	commandNames := make([]string, len(commands))
	for i, cmd := range commands {
		commandNames[i] = cmd.Name()
	}

	expectedCommands := []string{
		"export",
		"import",
		"plan",
		"validate",
		"version",
	}

	for _, expected := range expectedCommands {
		assert.Contains(t, commandNames, expected, "Expected command %s not found", expected)
	}
}
