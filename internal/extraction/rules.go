package extraction

import (
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// extractTag derives one tag's full TagResult: bits-variable context
// detection, rule derivation from raise-guards, block-spec, and argument
// structure (§4.4).
func extractTag(r registration, src []byte) *TagResult {
	res := &TagResult{Name: r.name}
	if r.fn == nil {
		return res
	}
	body := r.fn.ChildByFieldName("body")
	if body == nil {
		return res
	}

	switch r.kind {
	case regTag:
		bitsVar := detectSplitContentsVar(body, src)
		res.Rules = collectRules(body, src, bitsVar)
		res.Block = detectBlockSpec(body, src)
		res.Args = reconstructArgsFromRules(res.Rules)
	default:
		res.Args = simpleTagArgs(r, src)
		res.Block = detectBlockSpec(body, src)
	}
	return res
}

// detectSplitContentsVar finds the variable bound to `token.split_contents()`
// by scanning assignments in the function body. Never hard-codes a name
// (§4.4): "bits", "args", "tokens" and anything else must all work.
func detectSplitContentsVar(body *sitter.Node, src []byte) string {
	var found string
	walk(body, func(n *sitter.Node) {
		if found != "" || n.Type() != "assignment" {
			return
		}
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		if left == nil || right == nil || left.Type() != "identifier" {
			return
		}
		if right.Type() != "call" {
			return
		}
		fn := right.ChildByFieldName("function")
		if fn == nil || fn.Type() != "attribute" {
			return
		}
		method := fn.ChildByFieldName("attribute")
		if method != nil && nodeText(method, src) == "split_contents" {
			found = nodeText(left, src)
		}
	})
	return found
}

// collectRules walks the function body for `if <guard>: raise
// TemplateSyntaxError(<msg>)` and translates each into a (condition,
// message) pair (§4.4).
func collectRules(body *sitter.Node, src []byte, bitsVar string) []Rule {
	var rules []Rule
	walk(body, func(n *sitter.Node) {
		if n.Type() != "if_statement" {
			return
		}
		cond := n.ChildByFieldName("condition")
		cons := n.ChildByFieldName("consequence")
		if cond == nil || cons == nil {
			return
		}
		raiseCall := findRaiseTemplateSyntaxError(cons, src)
		if raiseCall == nil {
			return
		}
		message := raiseMessage(raiseCall, src)
		condition := translateGuard(nodeText(cond, src), bitsVar)
		rules = append(rules, Rule{Condition: condition, Message: message})
	})
	return rules
}

// findRaiseTemplateSyntaxError looks for a raise_statement anywhere in
// block whose raised call is TemplateSyntaxError(...).
func findRaiseTemplateSyntaxError(block *sitter.Node, src []byte) *sitter.Node {
	var found *sitter.Node
	walk(block, func(n *sitter.Node) {
		if found != nil || n.Type() != "raise_statement" {
			return
		}
		if n.NamedChildCount() == 0 {
			return
		}
		call := n.NamedChild(0)
		if call.Type() != "call" {
			return
		}
		fn := call.ChildByFieldName("function")
		if fn != nil && fn.Type() == "identifier" && nodeText(fn, src) == "TemplateSyntaxError" {
			found = call
		}
	})
	return found
}

func raiseMessage(call *sitter.Node, src []byte) string {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return ""
	}
	first := args.NamedChild(0)
	if v, ok := stringLiteralValue(nodeText(first, src)); ok {
		return v
	}
	return nodeText(first, src)
}

var (
	lenCompareRe  = regexp.MustCompile(`^len\(\s*(\w+)\s*\)\s*(==|!=|<=|<|>=|>)\s*(\d+)$`)
	literalAtRe   = regexp.MustCompile(`^(\w+)\[(-?\d+)\]\s*(==|!=)\s*(['"])(.*)['"]$`)
	choiceAtRe    = regexp.MustCompile(`^(\w+)\[(-?\d+)\]\s*(not\s+)?in\s*[(\[](.*)[)\]]$`)
	containsLitRe = regexp.MustCompile(`^(['"])(.*)['"]\s*(not\s+)?in\s*(\w+)$`)
)

// translateGuard classifies one guard expression's source text against
// the patterns named in §4.4. A guard whose variable doesn't match the
// detected split_contents binding, or that matches none of the patterns,
// becomes Opaque (the evaluator silently skips it).
func translateGuard(guard, bitsVar string) Condition {
	guard = strings.TrimSpace(guard)

	if m := lenCompareRe.FindStringSubmatch(guard); m != nil && (bitsVar == "" || m[1] == bitsVar) {
		n, _ := strconv.Atoi(m[3])
		switch m[2] {
		case "==":
			return Condition{Kind: CondExactArgCount, Count: n}
		case "!=":
			return Condition{Kind: CondExactArgCount, Count: n, Negated: true}
		case "<":
			return Condition{Kind: CondMaxArgCount, Count: n - 1}
		case "<=":
			return Condition{Kind: CondMaxArgCount, Count: n}
		case ">":
			return Condition{Kind: CondMinArgCount, Count: n + 1}
		case ">=":
			return Condition{Kind: CondMinArgCount, Count: n}
		}
	}

	if m := literalAtRe.FindStringSubmatch(guard); m != nil && (bitsVar == "" || m[1] == bitsVar) {
		idx, _ := strconv.Atoi(m[2])
		return Condition{Kind: CondLiteralAt, Index: idx, Literal: m[5], Negated: m[3] == "!="}
	}

	if m := choiceAtRe.FindStringSubmatch(guard); m != nil && (bitsVar == "" || m[1] == bitsVar) {
		idx, _ := strconv.Atoi(m[2])
		return Condition{Kind: CondChoiceAt, Index: idx, Choices: splitChoiceList(m[4]), Negated: m[3] != ""}
	}

	if m := containsLitRe.FindStringSubmatch(guard); m != nil && (bitsVar == "" || m[4] == bitsVar) {
		return Condition{Kind: CondContainsLiteral, Literal: m[2], Negated: m[3] != ""}
	}

	return Condition{Kind: CondOpaque, Description: guard}
}

func splitChoiceList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if v, ok := stringLiteralValue(p); ok {
			out = append(out, v)
		}
	}
	return out
}
