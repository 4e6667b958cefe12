// Package processor provides a composable diagnostic processing pipeline
// for the CLI's batch-lint mode (§C.1), applied after the core pipeline
// (internal/lspserver's RunPipeline, which cmd/djls/cmd calls) has
// produced one file's diagnostics and before a reporter renders them.
//
// The processor chain pattern is inspired by golangci-lint's approach:
// diagnostics flow through a sequence of processors, each transforming the
// slice (filtering or reordering).
//
// Standard pipeline order:
//  1. Deduplication - remove duplicate diagnostics
//  2. Sorting - stable output ordering
//
// Severity resolution and off-suppression already happened inside the core
// pipeline via config.DiagnosticsConfig.Resolve (see
// internal/lspserver/pipeline.go's applySeverity); this package does not
// duplicate that step.
package processor

import "github.com/djls/djls/internal/diag"

// Processor transforms a slice of diagnostics.
// Implementations should be stateless where possible, using Context for shared state.
type Processor interface {
	// Name returns the processor's identifier (for debugging/logging).
	Name() string

	// Process applies the processor's logic to diagnostics.
	// Returns the transformed slice (may be same, filtered, or reordered).
	// Must not modify the input slice; return a new slice if filtering.
	Process(diagnostics []diag.Diagnostic, ctx *Context) []diag.Diagnostic
}

// Context provides shared state for processors across one batch-lint run.
type Context struct {
	// Files lists every file path included in this run, in the order they
	// were linted. Processors that need stable multi-file ordering beyond
	// what's in each Diagnostic.File can consult it.
	Files []string
}

// NewContext creates a new processor context.
func NewContext(files []string) *Context {
	return &Context{Files: files}
}

// Chain runs processors in sequence.
type Chain struct {
	processors []Processor
}

// NewChain creates a new processor chain.
func NewChain(processors ...Processor) *Chain {
	return &Chain{processors: processors}
}

// Process runs all processors in sequence.
func (c *Chain) Process(diagnostics []diag.Diagnostic, ctx *Context) []diag.Diagnostic {
	for _, p := range c.processors {
		diagnostics = p.Process(diagnostics, ctx)
	}
	return diagnostics
}

// filterDiagnostics is a helper for processors that filter diagnostics.
// It returns a new slice containing only diagnostics where keep() returns true.
func filterDiagnostics(diagnostics []diag.Diagnostic, keep func(d diag.Diagnostic) bool) []diag.Diagnostic {
	result := make([]diag.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		if keep(d) {
			result = append(result, d)
		}
	}
	return result
}
