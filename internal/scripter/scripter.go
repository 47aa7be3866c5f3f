// Package scripter defines the schema scripting collaborator: the service
// that turns an object identifier into DDL/DML text on disk.
package scripter

import (
	"context"

	"github.com/dbsmedya/sqlmirror/internal/inventory"
)

// Options carries per-call script option overrides. A single logical object
// can have different facets (constraints only, indexes only) emitted to
// different files by varying these.
type Options map[string]string

// Clone returns an independent copy.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	c := make(Options, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// Request addresses one object for scripting.
type Request struct {
	Kind  inventory.Kind
	Owner string
	Name  string

	// ParentOwner/ParentName address the owning table for parent-scoped kinds.
	ParentOwner string
	ParentName  string

	Options Options

	// OutputPath is the absolute path of the file to write.
	OutputPath string

	// Append adds to an existing file instead of truncating it.
	Append bool
}

// Scripter writes the DDL/DML text for one object to the request's output
// path. Implementations must be safe for use from a single goroutine; callers
// that run concurrently construct one Scripter per connection.
type Scripter interface {
	Script(ctx context.Context, req Request) error
}
