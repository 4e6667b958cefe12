// Package tagspec assembles the derived tag-spec table (§3.5, §4.5) by
// merging a compile-time baseline with workspace and external rule
// extraction results.
package tagspec

import "github.com/djls/djls/internal/extraction"

// TagSpec is one tag's merged structural and rule knowledge (§3.5).
type TagSpec struct {
	EndTag           string
	IntermediateTags []string
	Opaque           bool
	Rules            []extraction.Rule
	ArgStructure     []extraction.Arg
}

// Result is compute_tag_specs' full output plus its two derived products
// (§4.5): filter_arity_specs and opaque_tag_set.
type Result struct {
	Tags         map[string]TagSpec
	FilterArity  map[string]extraction.FilterArity
	OpaqueTagSet map[string]bool
}

// Assemble merges a compile-time baseline, workspace extraction results,
// and external extraction results, in that order (§4.5): a later source wins
// on every field it sets, and a field it leaves empty (EndTag,
// IntermediateTags, Rules, ArgStructure, or a false Opaque) keeps the
// earlier value.
func Assemble(workspace, external []*extraction.Result) *Result {
	tags := baseline()
	filterArity := map[string]extraction.FilterArity{}

	apply := func(r *extraction.Result) {
		if r == nil {
			return
		}
		for name, tr := range r.Tags {
			tags[name] = mergeTagSpec(tags[name], fromExtracted(tr))
		}
		for name, fr := range r.Filters {
			if fr != nil {
				filterArity[name] = fr.Arity
			}
		}
	}
	for _, r := range workspace {
		apply(r)
	}
	for _, r := range external {
		apply(r)
	}

	opaque := map[string]bool{}
	for name, spec := range tags {
		if spec.Opaque {
			opaque[name] = true
		}
	}

	return &Result{Tags: tags, FilterArity: filterArity, OpaqueTagSet: opaque}
}

// mergeTagSpec lets incoming win on each field it sets; every empty or
// unset incoming field (EndTag, IntermediateTags, Rules, ArgStructure, a
// false Opaque) keeps existing's value.
func mergeTagSpec(existing, incoming TagSpec) TagSpec {
	merged := incoming
	if merged.EndTag == "" {
		merged.EndTag = existing.EndTag
	}
	if len(merged.IntermediateTags) == 0 {
		merged.IntermediateTags = existing.IntermediateTags
	}
	if len(merged.Rules) == 0 {
		merged.Rules = existing.Rules
	}
	if len(merged.ArgStructure) == 0 {
		merged.ArgStructure = existing.ArgStructure
	}
	if !merged.Opaque {
		merged.Opaque = existing.Opaque
	}
	return merged
}
