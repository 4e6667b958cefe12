package template

import (
	"strings"

	"github.com/djls/djls/internal/diag"
)

// Result is parse's output: the node list plus any unterminated-delimiter
// errors encountered along the way. Parsing never aborts (§4.2) — a
// malformed region becomes a Text node spanning the same bytes so the
// concatenation invariant (§8 property #1) holds regardless of errors.
type Result struct {
	Nodes  []Node
	Errors []ParseError
}

// Parse tokenizes and builds the node list for one template's source
// bytes. It is a pure function: parse(b) == parse(b) (§8 property #6).
func Parse(src []byte) *Result {
	p := &parser{src: src}
	p.run()
	return &Result{Nodes: p.nodes, Errors: p.errors}
}

type delimKind int

const (
	delimNone delimKind = iota
	delimTag
	delimVariable
	delimComment
)

type parser struct {
	src    []byte
	pos    int
	nodes  []Node
	errors []ParseError
}

func (p *parser) run() {
	n := len(p.src)
	for p.pos < n {
		idx, kind := p.nextDelim(p.pos)
		if idx < 0 {
			p.emitText(p.pos, n)
			p.pos = n
			break
		}
		if idx > p.pos {
			p.emitText(p.pos, idx)
		}
		switch kind {
		case delimTag:
			p.lexBraced(idx, "{%", "%}", "unterminated {% %} tag", p.finishTag)
		case delimVariable:
			p.lexBraced(idx, "{{", "}}", "unterminated {{ }} variable", p.finishVariable)
		case delimComment:
			p.lexBraced(idx, "{#", "#}", "unterminated {# #} comment", p.finishComment)
		}
	}
}

// nextDelim finds the earliest of "{%", "{{", "{#" at or after from,
// returning its byte index and kind, or (-1, delimNone) if none remain.
func (p *parser) nextDelim(from int) (int, delimKind) {
	best := -1
	bestKind := delimNone
	consider := func(open string, kind delimKind) {
		if i := indexFrom(p.src, open, from); i >= 0 && (best < 0 || i < best) {
			best = i
			bestKind = kind
		}
	}
	consider("{%", delimTag)
	consider("{{", delimVariable)
	consider("{#", delimComment)
	return best, bestKind
}

func indexFrom(src []byte, sub string, from int) int {
	if from >= len(src) {
		return -1
	}
	i := strings.Index(string(src[from:]), sub)
	if i < 0 {
		return -1
	}
	return from + i
}

// lexBraced scans one "{open ... close}" construct starting at start. On a
// missing closer it resynchronises at the next delimiter (or EOF),
// recording the whole malformed span as both a Text node and a ParseError.
func (p *parser) lexBraced(start int, open, closeTok, errMsg string, finish func(start, bodyStart, closeIdx int)) {
	bodyStart := start + len(open)
	closeIdx := indexFrom(p.src, closeTok, bodyStart)
	if closeIdx < 0 {
		nextIdx, _ := p.nextDelim(bodyStart)
		end := len(p.src)
		if nextIdx >= 0 {
			end = nextIdx
		}
		p.emitText(start, end)
		p.errors = append(p.errors, ParseError{
			Span:    diag.Span{Start: start, End: end},
			Message: errMsg,
		})
		p.pos = end
		return
	}
	finish(start, bodyStart, closeIdx)
	p.pos = closeIdx + len(closeTok)
}

func (p *parser) emitText(start, end int) {
	if start >= end {
		return
	}
	p.nodes = append(p.nodes, Node{
		Kind: KindText,
		Span: diag.Span{Start: start, End: end},
		Raw:  p.src[start:end],
	})
}

func (p *parser) finishTag(start, bodyStart, closeIdx int) {
	body := strings.TrimSpace(string(p.src[bodyStart:closeIdx]))
	bits := splitContents(body)
	var name string
	var rest []string
	if len(bits) > 0 {
		name = bits[0]
		rest = bits[1:]
	}
	p.nodes = append(p.nodes, Node{
		Kind: KindTag,
		Span: diag.Span{Start: start, End: closeIdx + 2},
		Name: name,
		Bits: rest,
	})
}

func (p *parser) finishVariable(start, bodyStart, closeIdx int) {
	body := string(p.src[bodyStart:closeIdx])
	segments := splitFilterChainOffsets(body)

	expression := strings.TrimSpace(segments[0].text)

	var filters []Filter
	for _, seg := range segments[1:] {
		leadingWS := len(seg.text) - len(strings.TrimLeft(seg.text, " \t\r\n"))
		trimmed := strings.TrimSpace(seg.text)
		if trimmed == "" {
			continue
		}
		absStart := bodyStart + seg.start + leadingWS
		absEnd := absStart + len(trimmed)
		name, arg := splitFilterNameArg(trimmed)
		filters = append(filters, Filter{
			Name: name,
			Arg:  arg,
			Span: diag.Span{Start: absStart, End: absEnd},
		})
	}

	p.nodes = append(p.nodes, Node{
		Kind:       KindVariable,
		Span:       diag.Span{Start: start, End: closeIdx + 2},
		Expression: expression,
		Filters:    filters,
	})
}

func (p *parser) finishComment(start, bodyStart, closeIdx int) {
	p.nodes = append(p.nodes, Node{
		Kind: KindComment,
		Span: diag.Span{Start: start, End: closeIdx + 2},
		Raw:  p.src[bodyStart:closeIdx],
	})
}
