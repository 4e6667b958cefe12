package extraction

import sitter "github.com/smacker/go-tree-sitter"

// simpleTagArgs reads the decorated function's parameter list directly for
// simple_tag/inclusion_tag/simple_block_tag registrations (§4.4).
func simpleTagArgs(r registration, src []byte) []Arg {
	if r.fn == nil {
		return nil
	}
	params := r.fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var args []Arg
	skippedContext := false
	n := int(params.NamedChildCount())
	for i := 0; i < n; i++ {
		p := params.NamedChild(i)

		// simple_block_tag's trailing nodelist parameter is implicit
		// (Django injects it), never part of the tag's own syntax.
		if r.kind == regSimpleBlockTag && i == n-1 && paramName(p, src) == "nodelist" {
			continue
		}
		if r.takesCtx && !skippedContext && paramName(p, src) == "context" {
			skippedContext = true
			continue
		}

		switch p.Type() {
		case "list_splat_pattern":
			args = append(args, Arg{Name: paramName(p, src), Kind: ArgVarArgs})
		case "dictionary_splat_pattern":
			args = append(args, Arg{Name: paramName(p, src), Kind: ArgKeywordArgs})
		case "default_parameter", "typed_default_parameter":
			args = append(args, Arg{Name: paramName(p, src), Kind: ArgVariable, Required: false})
		case "identifier", "typed_parameter":
			args = append(args, Arg{Name: paramName(p, src), Kind: ArgVariable, Required: true})
		}
	}

	args = append(args,
		Arg{Name: "as", Kind: ArgLiteral, Literal: "as", Required: false},
		Arg{Name: "varname", Kind: ArgVariable, Required: false},
	)
	return args
}

func paramName(p *sitter.Node, src []byte) string {
	switch p.Type() {
	case "identifier":
		return nodeText(p, src)
	case "default_parameter", "typed_parameter", "typed_default_parameter":
		if name := p.ChildByFieldName("name"); name != nil {
			return nodeText(name, src)
		}
	case "list_splat_pattern", "dictionary_splat_pattern":
		if p.NamedChildCount() > 0 {
			return nodeText(p.NamedChild(0), src)
		}
	}
	return ""
}

// reconstructArgsFromRules rebuilds a manual @register.tag's argument
// structure from its extracted rules (literal positions, choices, count
// bounds), filling any remaining positions with synthetic names (§4.4).
func reconstructArgsFromRules(rules []Rule) []Arg {
	maxIndex := 0
	byIndex := make(map[int]Arg)
	for _, r := range rules {
		switch r.Condition.Kind {
		case CondLiteralAt:
			byIndex[r.Condition.Index] = Arg{Kind: ArgLiteral, Literal: r.Condition.Literal, Required: true}
			if r.Condition.Index > maxIndex {
				maxIndex = r.Condition.Index
			}
		case CondChoiceAt:
			byIndex[r.Condition.Index] = Arg{Kind: ArgChoice, Choices: r.Condition.Choices, Required: true}
			if r.Condition.Index > maxIndex {
				maxIndex = r.Condition.Index
			}
		case CondExactArgCount:
			if r.Condition.Count-1 > maxIndex {
				maxIndex = r.Condition.Count - 1
			}
		case CondMinArgCount:
			if r.Condition.Count-1 > maxIndex {
				maxIndex = r.Condition.Count - 1
			}
		}
	}
	if maxIndex == 0 && len(byIndex) == 0 {
		return nil
	}

	args := make([]Arg, 0, maxIndex)
	for i := 1; i <= maxIndex; i++ {
		if a, ok := byIndex[i]; ok {
			if a.Name == "" {
				a.Name = syntheticArgName(i)
			}
			args = append(args, a)
			continue
		}
		args = append(args, Arg{Name: syntheticArgName(i), Kind: ArgVariable, Required: true})
	}
	return args
}

func syntheticArgName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i-1 < len(letters) {
		return "arg_" + string(letters[i-1])
	}
	return "arg"
}

// extractFilter derives a filter's arity from its function signature
// (§4.4): slot 1 is the filtered value, any second positional parameter
// indicates an accepted argument (required unless it has a default).
func extractFilter(r registration, src []byte) *FilterResult {
	res := &FilterResult{Name: r.name, Arity: ArityUnknown}
	fn := r.fn
	if fn == nil {
		return res
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return res
	}
	n := int(params.NamedChildCount())
	if n <= 1 {
		res.Arity = ArityNone
		return res
	}
	second := params.NamedChild(1)
	switch second.Type() {
	case "default_parameter", "typed_default_parameter":
		res.Arity = ArityOptional
	case "identifier", "typed_parameter":
		res.Arity = ArityRequired
	default:
		res.Arity = ArityUnknown
	}
	return res
}
