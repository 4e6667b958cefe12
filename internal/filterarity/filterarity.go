// Package filterarity resolves every filter reference in a template through
// the load-scope oracle and checks its argument presence against the
// extracted arity table, emitting S111-S113 and S115-S116 (§4.10).
package filterarity

import (
	"github.com/djls/djls/internal/blocktree"
	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/extraction"
	"github.com/djls/djls/internal/loadscope"
	"github.com/djls/djls/internal/template"
)

// Validate walks nodes, skipping anything inside an opaque region, and
// checks every Variable node's filter chain against oracle and arity
// (§4.10). opaque may be nil (no opaque regions).
func Validate(file string, nodes []template.Node, oracle *loadscope.Oracle, arity map[string]extraction.FilterArity, opaque blocktree.OpaqueSpans) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for i := range nodes {
		n := &nodes[i]
		if n.Kind != template.KindVariable {
			continue
		}
		if opaque.Contains(n.Span.Start) {
			continue
		}
		for _, f := range n.Filters {
			diags = append(diags, validateOne(file, f, oracle, arity)...)
		}
	}
	return diags
}

func validateOne(file string, f template.Filter, oracle *loadscope.Oracle, arity map[string]extraction.FilterArity) []diag.Diagnostic {
	if oracle != nil && !oracle.IsKnown(f.Name) {
		return []diag.Diagnostic{diag.New(file, f.Span, diag.CodeUnknownFilter,
			"unknown filter '"+f.Name+"'")}
	}

	switch answer := oracle.Resolve(f.Name, f.Span.Start); answer {
	case loadscope.RequiresLoad:
		libs := oracle.Candidates(f.Name)
		msg := "filter '" + f.Name + "' requires {% load %}"
		if len(libs) == 1 {
			msg += " " + libs[0]
		}
		return []diag.Diagnostic{diag.New(file, f.Span, diag.CodeUnloadedFilter, msg).WithTags(libs...)}
	case loadscope.Ambiguous:
		libs := oracle.Candidates(f.Name)
		return []diag.Diagnostic{diag.New(file, f.Span, diag.CodeAmbiguousUnloadFltr,
			"filter '"+f.Name+"' is defined by more than one loadable library").WithTags(libs...)}
	}

	// Available (or a nil/degraded oracle, which always answers Available):
	// check arity against the extracted table.
	present := f.Arg != nil
	switch arity[f.Name] {
	case extraction.ArityRequired:
		if !present {
			return []diag.Diagnostic{diag.New(file, f.Span, diag.CodeFilterMissingArg,
				"filter '"+f.Name+"' requires an argument")}
		}
	case extraction.ArityNone:
		if present {
			return []diag.Diagnostic{diag.New(file, f.Span, diag.CodeFilterUnexpectArg,
				"filter '"+f.Name+"' takes no argument")}
		}
	}
	// ArityOptional and ArityUnknown never produce a diagnostic here:
	// unknown arity is conservative silence (§4.10).
	return nil
}
