package loadscope

import (
	"strings"

	"github.com/djls/djls/internal/blocktree"
	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/tagspec"
	"github.com/djls/djls/internal/template"
)

// ValidateTags walks nodes, skipping anything inside an opaque region, and
// resolves every Tag node's name (openers and standalone tags alike) through
// oracle, emitting S108-S110
// (§4.6). End and intermediate tag names (e.g. "endif", "else") are never
// themselves registered template tags, so they are excluded from resolution
// the same way blocktree already treats them structurally — specs supplies
// that exclusion set.
func ValidateTags(file string, nodes []template.Node, specs map[string]tagspec.TagSpec, oracle *Oracle, opaque blocktree.OpaqueSpans) []diag.Diagnostic {
	skip := closerNames(specs)

	var diags []diag.Diagnostic
	for i := range nodes {
		n := &nodes[i]
		if n.Kind != template.KindTag || skip[n.Name] {
			continue
		}
		if opaque.Contains(n.Span.Start) {
			continue
		}

		if oracle != nil && !oracle.IsKnown(n.Name) {
			diags = append(diags, diag.New(file, n.Span, diag.CodeUnknownTag,
				"unknown tag '"+n.Name+"'"))
			continue
		}

		switch oracle.Resolve(n.Name, n.Span.Start) {
		case RequiresLoad:
			libs := oracle.Candidates(n.Name)
			msg := "'" + n.Name + "' requires {% load %}"
			if len(libs) == 1 {
				msg += " " + libs[0]
			}
			diags = append(diags, diag.New(file, n.Span, diag.CodeUnloadedTag, msg).WithTags(libs...))
		case Ambiguous:
			libs := oracle.Candidates(n.Name)
			diags = append(diags, diag.New(file, n.Span, diag.CodeAmbiguousUnloadTag,
				"'"+n.Name+"' is defined by more than one loadable library: "+strings.Join(libs, ", ")).WithTags(libs...))
		}
	}
	return diags
}

// closerNames collects every EndTag and IntermediateTags name across specs
// so callers can exclude them from tag-name resolution.
func closerNames(specs map[string]tagspec.TagSpec) map[string]bool {
	names := make(map[string]bool)
	for _, spec := range specs {
		if spec.EndTag != "" {
			names[spec.EndTag] = true
		}
		for _, mid := range spec.IntermediateTags {
			names[mid] = true
		}
	}
	return names
}
