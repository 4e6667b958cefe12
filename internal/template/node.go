// Package template tokenizes and parses Django template source into a node
// list with byte-precise spans (§3.3, §4.2). It performs no semantic
// validation: block nesting, load scoping, rule evaluation and expression
// checking all consume this package's output but live elsewhere.
package template

import "github.com/djls/djls/internal/diag"

// Kind discriminates the four node shapes a Django template decomposes
// into. There is no fifth kind: anything that is not {%...%}, {{...}} or
// {#...#} is Text.
type Kind int

const (
	KindText Kind = iota
	KindVariable
	KindTag
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindVariable:
		return "Variable"
	case KindTag:
		return "Tag"
	case KindComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

// Filter is one `|name` or `|name:arg` segment of a variable expression.
// Arg is nil when the filter takes no argument. Span covers the filter's
// own text (the name and, if present, the colon and argument) and always
// lies within the containing Variable node's span (§3.3 invariant).
type Filter struct {
	Name string
	Arg  *string
	Span diag.Span
}

// Node is one element of the parsed template. Which fields are populated
// depends on Kind:
//
//   - Text/Comment: Raw holds the node's bytes.
//   - Variable: Expression is the part before the first top-level '|';
//     Filters holds the ordered filter chain.
//   - Tag: Name is the tag keyword; Bits holds split_contents() with the
//     tag name removed (so Bits[0] is Django's split_contents()[1]).
type Node struct {
	Kind Kind
	Span diag.Span

	Raw []byte

	Expression string
	Filters    []Filter

	Name string
	Bits []string
}
