// Package ruleeval evaluates a tag's extracted rules against its actual
// split_contents() bits, emitting S117 for every rule that fires (§4.8).
package ruleeval

import (
	"strings"

	"github.com/djls/djls/internal/blocktree"
	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/extraction"
	"github.com/djls/djls/internal/tagspec"
	"github.com/djls/djls/internal/template"
)

// Evaluate walks nodes, skipping anything inside an opaque region, and
// evaluates every Tag{name, bits} against specs[name].Rules (§4.8).
func Evaluate(file string, nodes []template.Node, specs map[string]tagspec.TagSpec, opaque blocktree.OpaqueSpans) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for i := range nodes {
		n := &nodes[i]
		if n.Kind != template.KindTag {
			continue
		}
		if opaque.Contains(n.Span.Start) {
			continue
		}
		spec, ok := specs[n.Name]
		if !ok || len(spec.Rules) == 0 {
			continue
		}
		for _, rule := range spec.Rules {
			if fires(rule.Condition, n.Bits) {
				diags = append(diags, diag.New(file, n.Span, diag.CodeExtractedRule, rule.Message))
			}
		}
	}
	return diags
}

// fires evaluates one condition against bits (§3.4's split_contents bits,
// i.e. excluding the tag name itself). n is len(bits)+1, matching Django's
// own split_contents() count including the tag name.
func fires(c extraction.Condition, bits []string) bool {
	n := len(bits) + 1

	switch c.Kind {
	case extraction.CondExactArgCount:
		got := n == c.Count
		return got != c.Negated

	case extraction.CondMinArgCount:
		return n >= c.Count

	case extraction.CondMaxArgCount:
		return n <= c.Count

	case extraction.CondArgCountComparison:
		switch c.Op {
		case extraction.OpLt:
			return n < c.Count
		case extraction.OpLtEq:
			return n <= c.Count
		case extraction.OpGt:
			return n > c.Count
		case extraction.OpGtEq:
			return n >= c.Count
		}
		return false

	case extraction.CondLiteralAt:
		v, ok := bitAt(bits, c.Index)
		if !ok {
			return false // out-of-range reads never crash and never fire (§4.8)
		}
		got := v == c.Literal
		return got != c.Negated

	case extraction.CondChoiceAt:
		v, ok := bitAt(bits, c.Index)
		if !ok {
			return false
		}
		in := containsString(c.Choices, v)
		return in != c.Negated

	case extraction.CondContainsLiteral:
		in := containsString(bits, c.Literal)
		return in != c.Negated

	case extraction.CondOpaque:
		return false // Opaque rules are silently skipped (§3.4, §4.8)
	}
	return false
}

// bitAt resolves a split_contents index k to bits[k-1] (index 0 is the tag
// name itself, which isn't stored in bits — §4.8's "index offset rule").
func bitAt(bits []string, k int) (string, bool) {
	i := k - 1
	if i < 0 || i >= len(bits) {
		return "", false
	}
	return bits[i], true
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}
