package extraction

import (
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
)

var endTagRe = regexp.MustCompile(`^end\w+$`)

// detectBlockSpec walks a compile function's body for `parser.parse((tok,
// ...))` and `parser.skip_past("endFOO")` calls and derives the tag's
// block structure (§4.4). Returns nil if no such call appears (a non-block
// tag).
func detectBlockSpec(body *sitter.Node, src []byte) *BlockSpec {
	var candidates []string
	var skipPastTarget string

	walk(body, func(n *sitter.Node) {
		if n.Type() != "call" {
			return
		}
		fn := n.ChildByFieldName("function")
		if fn == nil || fn.Type() != "attribute" {
			return
		}
		obj := fn.ChildByFieldName("object")
		method := fn.ChildByFieldName("attribute")
		if obj == nil || method == nil || obj.Type() != "identifier" || nodeText(obj, src) != "parser" {
			return
		}
		args := n.ChildByFieldName("arguments")
		switch nodeText(method, src) {
		case "parse":
			candidates = append(candidates, stopTokensFromParseCall(args, src)...)
		case "skip_past":
			if args != nil && args.NamedChildCount() > 0 {
				if v, ok := stringLiteralValue(nodeText(args.NamedChild(0), src)); ok {
					skipPastTarget = v
				}
			}
		}
	})

	if skipPastTarget != "" {
		return &BlockSpec{EndTag: skipPastTarget, Opaque: true}
	}
	if len(candidates) == 0 {
		return nil
	}
	return classifyStopTokens(dedup(candidates))
}

func stopTokensFromParseCall(args *sitter.Node, src []byte) []string {
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	tuple := args.NamedChild(0)
	if tuple.Type() != "tuple" && tuple.Type() != "list" {
		return nil
	}
	var out []string
	for i := 0; i < int(tuple.NamedChildCount()); i++ {
		item := tuple.NamedChild(i)
		if item.Type() != "string" {
			continue
		}
		if v, ok := stringLiteralValue(nodeText(item, src)); ok {
			out = append(out, v)
		}
	}
	return out
}

// classifyStopTokens applies the tie-breaker rule from §4.4: with a
// single candidate, it is the end_tag outright. With several, a token
// matching `end<name>` becomes end_tag and the rest are intermediates;
// never inventing an end-tag name absent from the candidates themselves.
// If no candidate matches that pattern, classification is left
// ambiguous (end_tag unset).
func classifyStopTokens(candidates []string) *BlockSpec {
	if len(candidates) == 1 {
		return &BlockSpec{EndTag: candidates[0]}
	}

	var endCandidates []string
	for _, c := range candidates {
		if endTagRe.MatchString(c) {
			endCandidates = append(endCandidates, c)
		}
	}

	spec := &BlockSpec{}
	if len(endCandidates) == 1 {
		spec.EndTag = endCandidates[0]
		for _, c := range candidates {
			if c != spec.EndTag {
				spec.IntermediateTags = append(spec.IntermediateTags, c)
			}
		}
		return spec
	}
	// Ambiguous: leave end_tag unset, but still record every candidate as
	// a potential intermediate so the block tree builder at least
	// recognises them as belonging to this tag's body.
	spec.IntermediateTags = candidates
	return spec
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
