// Package sqlutil provides SQL utility functions for sqlmirror.
package sqlutil

import (
	"regexp"
	"strings"
)

// QuoteIdentifier quotes a SQL Server identifier (table, column, constraint name)
// with square brackets. It escapes any closing bracket by doubling it.
// Example: "Orders" -> "[Orders]"
// Example: "odd]name" -> "[odd]]name]"
func QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// QualifiedName returns a bracket-quoted schema-qualified name.
// An empty owner yields just the quoted object name.
func QualifiedName(owner, name string) string {
	if owner == "" {
		return QuoteIdentifier(name)
	}
	return QuoteIdentifier(owner) + "." + QuoteIdentifier(name)
}

// validIdentifierRegex matches identifier characters we accept without question.
// SQL Server allows far more inside brackets, but names that reach dynamic SQL
// here come from catalog views, so the restriction costs nothing.
var validIdentifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_ .\-]+$`)

// IsValidIdentifier checks if a name contains only accepted identifier characters.
// This is a defense-in-depth measure against SQL injection.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteIdentifierSafe quotes an identifier after validating it.
// Returns an error if the identifier contains invalid characters.
// Use this when identifiers might come from untrusted sources.
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name
}
