// Package importer applies an exported script tree to a target database:
// phase-ordered script application, multi-pass dependency resolution for
// programmable objects, and a foreign-key guard around the data load.
package importer

import (
	"regexp"
	"strings"
)

// goSeparator matches a T-SQL batch separator line: the GO token alone on a
// line, optional surrounding whitespace, an optional numeric repeat count,
// and an optional trailing line comment.
var goSeparator = regexp.MustCompile(`(?i)^\s*GO(\s+\d+)?\s*(--.*)?$`)

// SplitBatches splits a script into executable batches on GO separator lines.
// A repeat count after GO is accepted syntactically but the batch is executed
// once; existing exported scripts rely on this behavior.
func SplitBatches(script string) []string {
	var batches []string
	var current strings.Builder

	flush := func() {
		batch := strings.TrimSpace(current.String())
		if batch != "" {
			batches = append(batches, batch)
		}
		current.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		if goSeparator.MatchString(strings.TrimRight(line, "\r")) {
			flush()
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	return batches
}
