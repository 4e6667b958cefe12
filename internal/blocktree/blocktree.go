// Package blocktree builds the nested block forest from a parsed node
// list against the tag-spec table, and emits the structural S100-S103
// diagnostics (§3.6, §4.7).
package blocktree

import (
	"sort"

	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/tagspec"
	"github.com/djls/djls/internal/template"
)

// Block is one nested block in the forest (§3.6): its opener tag, an
// ordered body of children (leaf nodes, nested Blocks, or Section
// markers), an optional closer, and its own span (opener start to closer
// end, or EOF if unclosed).
type Block struct {
	Opener   *template.Node
	Body     []Item
	Closer   *template.Node
	Span     diag.Span
	Unclosed bool
}

// Section marks an intermediate boundary inside a Block's body (e.g. the
// `else` in `{% if %}...{% else %}...{% endif %}`); everything after it
// until the next Section or the closer belongs to that section.
type Section struct {
	Tag *template.Node
}

// Item is one element of a Block's body: exactly one of Leaf, Nested, or
// Section is non-nil.
type Item struct {
	Leaf    *template.Node
	Nested  *Block
	Section *Section
}

// Result is the full output of one build pass (§4.7): the top-level
// forest, diagnostics, and the sorted opaque-span index.
type Result struct {
	Roots       []Item
	Diagnostics []diag.Diagnostic
	Opaque      OpaqueSpans
}

// OpaqueSpans is a sorted-by-start set of byte spans belonging to blocks
// whose opener tag is opaque (§4.7's "stored in sorted-span form to allow
// binary-search containment in O(log n)").
type OpaqueSpans []diag.Span

// Contains reports whether p lies inside any recorded opaque span.
func (o OpaqueSpans) Contains(p int) bool {
	i := sort.Search(len(o), func(i int) bool { return o[i].End > p })
	return i < len(o) && o[i].Contains(p)
}

type frame struct {
	opener  *template.Node
	spec    tagspec.TagSpec
	body    []Item
	section *Section
}

// Build consumes nodes left to right against specs, classifying each Tag
// node as opener/closer/intermediate/leaf and producing the nested forest
// plus structural diagnostics (§4.7).
func Build(file string, nodes []template.Node, specs map[string]tagspec.TagSpec) *Result {
	b := &builder{file: file, specs: specs}
	for i := range nodes {
		b.step(&nodes[i])
	}
	b.finish()
	sort.Slice(b.opaque, func(i, j int) bool { return b.opaque[i].Start < b.opaque[j].Start })
	return &Result{Roots: b.roots, Diagnostics: b.diags, Opaque: b.opaque}
}

type builder struct {
	file   string
	specs  map[string]tagspec.TagSpec
	stack  []*frame
	roots  []Item
	diags  []diag.Diagnostic
	opaque OpaqueSpans
}

func (b *builder) step(n *template.Node) {
	if n.Kind != template.KindTag {
		b.attach(Item{Leaf: n})
		return
	}

	if len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		if n.Name == top.spec.EndTag && top.spec.EndTag != "" {
			b.closeTop(n)
			return
		}
		if top.spec.Opaque {
			// An opaque opener's body is raw content as far as the real
			// parser is concerned (it reaches its end_tag via
			// skip_past/parse-then-discard, never recursing into nested
			// tag syntax) — so nothing here is classified further.
			b.attach(Item{Leaf: n})
			return
		}
		if contains(top.spec.IntermediateTags, n.Name) {
			top.body = append(top.body, Item{Section: &Section{Tag: n}})
			return
		}
	}

	spec, known := b.specs[n.Name]
	if known && spec.EndTag != "" {
		b.stack = append(b.stack, &frame{opener: n, spec: spec})
		return
	}

	// A closer-shaped name (matches some known EndTag) appearing with no
	// matching opener on the stack is unbalanced structure, not a leaf.
	if isKnownCloser(b.specs, n.Name) {
		b.diags = append(b.diags, diag.New(b.file, n.Span, diag.CodeUnbalancedStruct,
			"closing tag '"+n.Name+"' does not match any open block"))
		return
	}

	// An intermediate tag (e.g. 'empty', 'elif') with no enclosing block
	// that declares it is orphaned, not an ordinary leaf.
	if isKnownIntermediate(b.specs, n.Name) {
		b.diags = append(b.diags, diag.New(b.file, n.Span, diag.CodeOrphanedTag,
			"'"+n.Name+"' tag is not valid outside its owning block"))
		return
	}

	b.attach(Item{Leaf: n})
}

func (b *builder) closeTop(closer *template.Node) {
	top := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	if err := closerArgMismatch(top.opener, closer); err != "" {
		b.diags = append(b.diags, diag.New(b.file, closer.Span, diag.CodeUnmatchedBlockName, err))
	}

	block := &Block{
		Opener: top.opener,
		Body:   top.body,
		Closer: closer,
		Span:   diag.Span{Start: top.opener.Span.Start, End: closer.Span.End},
	}
	if top.spec.Opaque {
		b.opaque = append(b.opaque, block.Span)
	}
	b.attach(Item{Nested: block})
}

func (b *builder) attach(it Item) {
	if len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		top.body = append(top.body, it)
		return
	}
	b.roots = append(b.roots, it)
}

// finish flushes any still-open frames as unclosed blocks (S100), each
// attached to its parent frame (or the roots) with the opener's span.
func (b *builder) finish() {
	for len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]

		b.diags = append(b.diags, diag.New(b.file, top.opener.Span, diag.CodeUnclosedTag,
			"'"+top.opener.Name+"' tag was never closed"))

		block := &Block{Opener: top.opener, Body: top.body, Unclosed: true, Span: top.opener.Span}
		b.attach(Item{Nested: block})
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// isKnownCloser reports whether name is some spec's end_tag, which
// distinguishes "orphaned closer with no matching opener" (S101) from an
// ordinary unknown leaf tag.
func isKnownCloser(specs map[string]tagspec.TagSpec, name string) bool {
	for _, s := range specs {
		if s.EndTag == name {
			return true
		}
	}
	return false
}

// isKnownIntermediate reports whether name is listed as an intermediate
// tag by some spec, anywhere, regardless of current nesting.
func isKnownIntermediate(specs map[string]tagspec.TagSpec, name string) bool {
	for _, s := range specs {
		if contains(s.IntermediateTags, name) {
			return true
		}
	}
	return false
}

// closerArgMismatch checks Django's `{% endblock name %}` convention: if
// the closer carries a bit and the opener's first bit differs, the names
// disagree (§4.7 S103).
func closerArgMismatch(opener, closer *template.Node) string {
	if len(closer.Bits) == 0 {
		return ""
	}
	if len(opener.Bits) == 0 || opener.Bits[0] != closer.Bits[0] {
		return "'" + closer.Name + " " + closer.Bits[0] + "' does not match opening tag '" + opener.Name + " " + firstBit(opener) + "'"
	}
	return ""
}

func firstBit(n *template.Node) string {
	if len(n.Bits) == 0 {
		return ""
	}
	return n.Bits[0]
}
