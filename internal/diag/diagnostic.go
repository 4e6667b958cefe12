package diag

// Diagnostic is the semantic artifact every validator emits. It carries no
// LSP types: internal/lspserver is responsible for projecting Diagnostic
// into protocol.Diagnostic at the edge.
type Diagnostic struct {
	File     string
	Span     Span
	Code     Code
	Message  string
	Severity Severity

	// Tags optionally qualify the diagnostic for downstream consumers
	// (e.g. the library name an Unloaded* diagnostic names, or the set of
	// ambiguous libraries for Ambiguous*).
	Tags []string
}

// New constructs a Diagnostic with the code's default severity.
func New(file string, span Span, code Code, message string) Diagnostic {
	return Diagnostic{
		File:     file,
		Span:     span,
		Code:     code,
		Message:  message,
		Severity: DefaultSeverity(code),
	}
}

// WithTags returns a copy of d carrying the given tags.
func (d Diagnostic) WithTags(tags ...string) Diagnostic {
	d.Tags = tags
	return d
}

// WithSeverity returns a copy of d with severity replaced.
func (d Diagnostic) WithSeverity(sev Severity) Diagnostic {
	d.Severity = sev
	return d
}

// Accumulator is the incremental engine's side-channel for "diagnostics
// produced during this query" (§7). Tracked queries append to it instead of
// returning errors; the top-level collector pulls from every relevant
// query's accumulator after it has run to completion.
type Accumulator struct {
	diags []Diagnostic
}

// Push appends d unless its code is suppressed by healthy, which reflects
// whether a healthy inspector inventory exists for the current Project
// (§6.2's "Suppressed when inspector inventory absent" column).
func (a *Accumulator) Push(d Diagnostic, inventoryHealthy bool) {
	if RequiresInventory(d.Code) && !inventoryHealthy {
		return
	}
	a.diags = append(a.diags, d)
}

// PushAlways appends d unconditionally (for codes never suppressed by
// inventory absence, e.g. structural and parse diagnostics).
func (a *Accumulator) PushAlways(d Diagnostic) {
	a.diags = append(a.diags, d)
}

// All returns the accumulated diagnostics in emission order.
func (a *Accumulator) All() []Diagnostic { return a.diags }

// Len reports how many diagnostics have been accumulated.
func (a *Accumulator) Len() int { return len(a.diags) }
