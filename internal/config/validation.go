package config

import (
	"fmt"
	"path"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if err := c.validateConnection("source", &c.Source); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateConnection("target", &c.Target); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateExport(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateImport(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateRetry(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateConnection(prefix string, cc *ConnectionConfig) ValidationErrors {
	var errors ValidationErrors

	if cc.Host == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".host",
			Message: "host is required",
		})
	}

	if cc.Port <= 0 || cc.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".port",
			Message: "port must be between 1 and 65535",
		})
	}

	if cc.User == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".user",
			Message: "user is required",
		})
	}

	if cc.Database == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".database",
			Message: "database name is required",
		})
	}

	validEncrypt := map[string]bool{"disable": true, "optional": true, "mandatory": true, "": true}
	if !validEncrypt[cc.Encrypt] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".encrypt",
			Message: "encrypt must be 'disable', 'optional', or 'mandatory'",
		})
	}

	if cc.ConnectTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".connect_timeout_seconds",
			Message: "connect_timeout_seconds cannot be negative",
		})
	}

	if cc.CommandTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".command_timeout_seconds",
			Message: "command_timeout_seconds cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateExport() ValidationErrors {
	var errors ValidationErrors

	if c.Export.OutputDir == "" {
		errors = append(errors, ValidationError{
			Field:   "export.output_dir",
			Message: "output_dir is required",
		})
	}

	if !validGroupingMode(c.Export.GroupingMode) {
		errors = append(errors, ValidationError{
			Field:   "export.grouping_mode",
			Message: "grouping_mode must be 'single', 'by_schema', or 'all'",
		})
	}

	for kind, mode := range c.Export.GroupingModes {
		if !validGroupingMode(mode) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("export.grouping_modes.%s", kind),
				Message: "grouping mode must be 'single', 'by_schema', or 'all'",
			})
		}
	}

	// Whitelist and blacklist are mutually exclusive.
	if len(c.Export.IncludeKinds) > 0 && len(c.Export.ExcludeKinds) > 0 {
		errors = append(errors, ValidationError{
			Field:   "export.include_kinds",
			Message: "include_kinds and exclude_kinds cannot both be set",
		})
	}

	for i, pattern := range append(append([]string{}, c.Export.IncludeNames...), c.Export.ExcludeNames...) {
		if _, err := path.Match(pattern, "probe"); err != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("export name pattern [%d]", i),
				Message: fmt.Sprintf("invalid glob pattern %q", pattern),
			})
		}
	}

	if c.Export.Parallel.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   "export.parallel.workers",
			Message: "workers cannot be negative",
		})
	}
	if c.Export.Parallel.Workers > MaxWorkers {
		errors = append(errors, ValidationError{
			Field:   "export.parallel.workers",
			Message: fmt.Sprintf("workers cannot exceed %d", MaxWorkers),
		})
	}

	return errors
}

func (c *Config) validateImport() ValidationErrors {
	var errors ValidationErrors

	if c.Import.InputDir == "" {
		errors = append(errors, ValidationError{
			Field:   "import.input_dir",
			Message: "input_dir is required",
		})
	}

	if c.Import.DependencyRetry.Enabled && c.Import.DependencyRetry.MaxPasses <= 0 {
		errors = append(errors, ValidationError{
			Field:   "import.dependency_retry.max_passes",
			Message: "max_passes must be positive when dependency retry is enabled",
		})
	}

	return errors
}

func (c *Config) validateRetry() ValidationErrors {
	var errors ValidationErrors

	if c.Retry.MaxAttempts <= 0 {
		errors = append(errors, ValidationError{
			Field:   "retry.max_attempts",
			Message: "max_attempts must be positive",
		})
	}

	if c.Retry.InitialDelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "retry.initial_delay_ms",
			Message: "initial_delay_ms cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}

func validGroupingMode(mode string) bool {
	switch mode {
	case GroupingSingle, GroupingBySchema, GroupingAll, "":
		return true
	}
	return false
}
