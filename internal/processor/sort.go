package processor

import (
	"sort"

	"github.com/djls/djls/internal/diag"
)

// Sorting ensures stable, deterministic output ordering.
// Order: file path, then span start, then code.
// This ensures identical output across runs and platforms.
type Sorting struct{}

// NewSorting creates a new sorting processor.
func NewSorting() *Sorting {
	return &Sorting{}
}

// Name returns the processor's identifier.
func (p *Sorting) Name() string {
	return "sorting"
}

// Process sorts diagnostics in a stable order.
func (p *Sorting) Process(diagnostics []diag.Diagnostic, _ *Context) []diag.Diagnostic {
	out := make([]diag.Diagnostic, len(diagnostics))
	copy(out, diagnostics)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		return a.Code < b.Code
	})
	return out
}
