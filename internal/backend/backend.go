// Package backend runs a compiled unit. The tree-walk backend interprets the
// checked tree directly; the JVM backend writes the generated class to disk
// and starts a java process on it.
package backend

import (
	"github.com/funvibe/ktjvm/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run executes the unit in ctx. Runtime failures are returned as R001
	// diagnostics.
	Run(ctx *pipeline.PipelineContext) error

	// Name returns the backend name for display
	Name() string
}
