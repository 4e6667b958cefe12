package template

import (
	"regexp"

	"github.com/djls/djls/internal/diag"
)

// smartSplitRe mirrors Django's smart_split / split_contents tokenizer: a
// complete single- or double-quoted string (escapes honored), or a run of
// non-whitespace, whichever alternative matches first at the current
// position. Quotes are kept verbatim in the returned token.
var smartSplitRe = regexp.MustCompile(`"(?:[^"\\]*(?:\\.[^"\\]*)*)"|'(?:[^'\\]*(?:\\.[^'\\]*)*)'|\S+`)

// splitContents implements Django's Token.split_contents(): whitespace
// splitting that treats a quoted string (with escaped quotes) as one
// token even if it contains embedded spaces.
func splitContents(s string) []string {
	return smartSplitRe.FindAllString(s, -1)
}

// BitSpans returns the absolute byte span of each entry in a Tag node's
// Bits, in order, by re-tokenizing the tag's body out of src with the same
// smart-split rule used at parse time. Callers that need per-token
// diagnostic positions (e.g. an expression validator pointing at one
// operator or operand) use this instead of Node.Span, which only covers
// the whole tag. Returns nil for a non-Tag node.
func BitSpans(src []byte, n Node) []diag.Span {
	if n.Kind != KindTag {
		return nil
	}
	bodyStart := n.Span.Start + len("{%")
	bodyEnd := n.Span.End - len("%}")
	if bodyStart < 0 || bodyEnd > len(src) || bodyStart > bodyEnd {
		return nil
	}
	body := string(src[bodyStart:bodyEnd])
	idx := smartSplitRe.FindAllStringIndex(body, -1)
	if len(idx) == 0 {
		return nil
	}
	// idx[0] is the tag name itself; Bits excludes it (§3.3).
	idx = idx[1:]
	spans := make([]diag.Span, len(idx))
	for i, pair := range idx {
		spans[i] = diag.Span{Start: bodyStart + pair[0], End: bodyStart + pair[1]}
	}
	return spans
}

// filterSegment is one '|'-delimited slice of a variable expression, with
// its untrimmed byte offset within the original body so callers can derive
// an absolute span after trimming whitespace.
type filterSegment struct {
	text  string
	start int
}

// splitFilterChainOffsets splits a variable expression body on top-level
// '|' — pipes inside a quoted string never split (§4.2). The returned
// slice always has at least one element (the bare expression before any
// filter).
func splitFilterChainOffsets(body string) []filterSegment {
	var parts []filterSegment
	segStart := 0
	var quote rune
	for i, r := range body {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '|':
			parts = append(parts, filterSegment{text: body[segStart:i], start: segStart})
			segStart = i + 1
		}
	}
	parts = append(parts, filterSegment{text: body[segStart:], start: segStart})
	return parts
}

// splitFilterNameArg splits one filter segment on the first unquoted ':'
// into (name, arg). arg is nil if no ':' was found outside quotes.
func splitFilterNameArg(segment string) (string, *string) {
	var quote rune
	for i, r := range segment {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ':':
			name := segment[:i]
			arg := segment[i+1:]
			return name, &arg
		}
	}
	return segment, nil
}
