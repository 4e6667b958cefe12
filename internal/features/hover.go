package features

import (
	"strings"

	"github.com/djls/djls/internal/extraction"
	"github.com/djls/djls/internal/loadscope"
	"github.com/djls/djls/internal/tagspec"
)

// HoverInfo is the rendered hover text for a tag or filter name, along with
// the structured facts it was built from so a caller can re-render in a
// different format (e.g. plain text vs. markdown) without re-deriving them.
type HoverInfo struct {
	Markdown     string
	Opaque       bool
	EndTag       string
	RequiresLoad bool
	Libraries    []string
}

// HoverTag renders hover text for a tag name from its assembled TagSpec,
// annotating it with the oracle's availability answer at pos the same way
// Completions does (§4.5, §4.6).
func HoverTag(name string, spec tagspec.TagSpec, oracle *loadscope.Oracle, pos int) HoverInfo {
	info := HoverInfo{EndTag: spec.EndTag, Opaque: spec.Opaque}

	var b strings.Builder
	b.WriteString("**{% ")
	b.WriteString(name)
	b.WriteString(" %}**")

	if spec.EndTag != "" {
		b.WriteString("\n\nCloses with `{% ")
		b.WriteString(spec.EndTag)
		b.WriteString(" %}`")
		if len(spec.IntermediateTags) > 0 {
			b.WriteString(", allows `")
			b.WriteString(strings.Join(spec.IntermediateTags, "`, `"))
			b.WriteString("`")
		}
	}

	if spec.Opaque {
		b.WriteString("\n\nOpaque: its body is never structurally validated.")
	}

	if len(spec.ArgStructure) > 0 {
		b.WriteString("\n\n```\n")
		b.WriteString(Snippet(name, spec))
		b.WriteString("\n```")
	}

	switch oracle.Resolve(name, pos) {
	case loadscope.RequiresLoad:
		info.RequiresLoad = true
		info.Libraries = oracle.Candidates(name)
		b.WriteString("\n\nRequires `{% load " + strings.Join(info.Libraries, " ") + " %}`")
	case loadscope.Ambiguous:
		info.RequiresLoad = true
		info.Libraries = oracle.Candidates(name)
		b.WriteString("\n\nAmbiguous: defined by " + strings.Join(info.Libraries, ", "))
	}

	info.Markdown = b.String()
	return info
}

// HoverFilter renders hover text for a filter name from its extracted
// arity and the oracle's resolution at pos (§4.10).
func HoverFilter(name string, arity extraction.FilterArity, oracle *loadscope.Oracle, pos int) HoverInfo {
	var b strings.Builder
	b.WriteString("**|" + name + "**")

	switch arity {
	case extraction.ArityRequired:
		b.WriteString("\n\nRequires an argument: `|" + name + ":value`")
	case extraction.ArityNone:
		b.WriteString("\n\nTakes no argument.")
	case extraction.ArityOptional:
		b.WriteString("\n\nArgument is optional.")
	}

	info := HoverInfo{}
	switch oracle.Resolve(name, pos) {
	case loadscope.RequiresLoad:
		info.RequiresLoad = true
		info.Libraries = oracle.Candidates(name)
		b.WriteString("\n\nRequires `{% load " + strings.Join(info.Libraries, " ") + " %}`")
	case loadscope.Ambiguous:
		info.RequiresLoad = true
		info.Libraries = oracle.Candidates(name)
		b.WriteString("\n\nAmbiguous: defined by " + strings.Join(info.Libraries, ", "))
	}

	info.Markdown = b.String()
	return info
}
