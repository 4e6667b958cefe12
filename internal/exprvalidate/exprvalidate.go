// Package exprvalidate runs a small Pratt parser over {% if %}/{% elif %}
// tag bits against Django's own operator table, emitting S114 for anything
// that doesn't parse as a well-formed boolean expression (§4.9).
package exprvalidate

import (
	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/template"
)

type tokenKind int

const (
	tokOperand tokenKind = iota
	tokOr
	tokAnd
	tokNot   // unary prefix only
	tokIn    // binary
	tokNotIn // binary ("not in")
	tokIs    // binary
	tokIsNot // binary ("is not")
	tokCmp   // ==, !=, <, <=, >, >=
)

var cmpOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

type token struct {
	kind tokenKind
	text string
	span diag.Span
}

// bindingPower returns a binary operator's left-binding power per the table
// in §4.9. The second return is false for tokOperand/tokNot, which never
// appear in operator (infix) position.
func bindingPower(k tokenKind) (int, bool) {
	switch k {
	case tokOr:
		return 6, true
	case tokAnd:
		return 7, true
	case tokIn, tokNotIn:
		return 9, true
	case tokIs, tokIsNot, tokCmp:
		return 10, true
	default:
		return 0, false
	}
}

// notPrefixBindingPower is 'not's own binding power as a unary prefix (§4.9).
const notPrefixBindingPower = 8

// tokenize classifies each bit as an operand or one of the table's
// operators, combining the two-word operators "not in" and "is not" into a
// single token spanning both bits.
func tokenize(bits []string, spans []diag.Span) []token {
	var toks []token
	for i := 0; i < len(bits); i++ {
		bit := bits[i]
		span := safeSpan(spans, i)
		switch {
		case bit == "or":
			toks = append(toks, token{kind: tokOr, text: bit, span: span})
		case bit == "and":
			toks = append(toks, token{kind: tokAnd, text: bit, span: span})
		case bit == "not" && i+1 < len(bits) && bits[i+1] == "in":
			toks = append(toks, token{kind: tokNotIn, text: "not in", span: combine(span, safeSpan(spans, i+1))})
			i++
		case bit == "not":
			toks = append(toks, token{kind: tokNot, text: bit, span: span})
		case bit == "in":
			toks = append(toks, token{kind: tokIn, text: bit, span: span})
		case bit == "is" && i+1 < len(bits) && bits[i+1] == "not":
			toks = append(toks, token{kind: tokIsNot, text: "is not", span: combine(span, safeSpan(spans, i+1))})
			i++
		case bit == "is":
			toks = append(toks, token{kind: tokIs, text: bit, span: span})
		case cmpOps[bit]:
			toks = append(toks, token{kind: tokCmp, text: bit, span: span})
		default:
			toks = append(toks, token{kind: tokOperand, text: bit, span: span})
		}
	}
	return toks
}

func safeSpan(spans []diag.Span, i int) diag.Span {
	if i < 0 || i >= len(spans) {
		return diag.Span{}
	}
	return spans[i]
}

func combine(a, b diag.Span) diag.Span {
	return diag.Span{Start: a.Start, End: b.End}
}

// Validate runs the Pratt parser over one if/elif tag's bits and returns
// every S114 it finds. Non-if/elif Tag nodes and non-Tag nodes are ignored.
// src is the full template source, needed to recover per-bit spans via
// template.BitSpans.
func Validate(file string, n template.Node, src []byte) []diag.Diagnostic {
	if n.Kind != template.KindTag || (n.Name != "if" && n.Name != "elif") {
		return nil
	}
	spans := template.BitSpans(src, n)
	toks := tokenize(n.Bits, spans)

	if len(toks) == 0 {
		return []diag.Diagnostic{diag.New(file, n.Span, diag.CodeExpressionSyntax,
			"'"+n.Name+"' tag requires an expression")}
	}

	p := &parser{file: file, toks: toks}
	p.parseExpr(0)
	if p.failed {
		return p.diags
	}
	if !p.atEnd() {
		tok := p.peek()
		if tok.kind == tokOperand {
			p.errorAt(tok, "unexpected token '"+tok.text+"': two operands cannot appear without an operator between them")
		} else {
			p.errorAt(tok, "unbalanced expression at '"+tok.text+"'")
		}
	}
	return p.diags
}

type parser struct {
	file   string
	toks   []token
	pos    int
	diags  []diag.Diagnostic
	failed bool
}

func (p *parser) atEnd() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) errorAt(t token, msg string) {
	p.diags = append(p.diags, diag.New(p.file, t.span, diag.CodeExpressionSyntax, msg))
	p.failed = true
}

// parseExpr parses one expression whose outermost binary operator's
// binding power is at least minBp, implementing the standard Pratt
// precedence-climbing loop over the table in §4.9.
func (p *parser) parseExpr(minBp int) {
	p.parsePrefix()
	if p.failed {
		return
	}
	for !p.atEnd() {
		op := p.peek()
		bp, isBinary := bindingPower(op.kind)
		if !isBinary || bp < minBp {
			return
		}
		p.advance()
		if p.atEnd() {
			p.errorAt(op, "'"+op.text+"' has no right-hand operand")
			return
		}
		p.parseExpr(bp + 1)
		if p.failed {
			return
		}
	}
}

// parsePrefix consumes one operand, optionally preceded by a 'not' unary
// prefix.
func (p *parser) parsePrefix() {
	if p.atEnd() {
		return
	}
	t := p.peek()
	switch t.kind {
	case tokNot:
		p.advance()
		if p.atEnd() {
			p.errorAt(t, "'not' has no operand")
			return
		}
		p.parseExpr(notPrefixBindingPower)
	case tokOperand:
		p.advance()
	default:
		p.errorAt(t, "unexpected operator '"+t.text+"' where an operand was expected")
	}
}
