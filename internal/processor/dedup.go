package processor

import (
	"fmt"
	"path/filepath"

	"github.com/djls/djls/internal/diag"
)

// Deduplication removes duplicate diagnostics.
// Two diagnostics are considered duplicates if they have the same file,
// span start, and code. This handles the case where the same structural
// issue is independently flagged by more than one validator stage (e.g. a
// malformed node that both blocktree and ruleeval notice).
type Deduplication struct{}

// NewDeduplication creates a new deduplication processor.
func NewDeduplication() *Deduplication {
	return &Deduplication{}
}

// Name returns the processor's identifier.
func (p *Deduplication) Name() string {
	return "deduplication"
}

// Process removes duplicate diagnostics, keeping the first occurrence of
// each unique (file, span start, code) combination.
func (p *Deduplication) Process(diagnostics []diag.Diagnostic, _ *Context) []diag.Diagnostic {
	seen := make(map[string]bool)
	return filterDiagnostics(diagnostics, func(d diag.Diagnostic) bool {
		key := fmt.Sprintf("%s:%d:%s", filepath.ToSlash(d.File), d.Span.Start, d.Code)
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})
}
