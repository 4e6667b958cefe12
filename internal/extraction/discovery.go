package extraction

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// registrationKind mirrors the five decorator/call forms §4.4 recognises.
type registrationKind int

const (
	regTag registrationKind = iota
	regSimpleTag
	regInclusionTag
	regSimpleBlockTag
	regFilter
)

var decoratorMethodKind = map[string]registrationKind{
	"tag":              regTag,
	"simple_tag":       regSimpleTag,
	"inclusion_tag":    regInclusionTag,
	"simple_block_tag": regSimpleBlockTag,
	"filter":           regFilter,
}

// registration is one discovered `@register.X` / `register.X(...)` site,
// resolved to the function it decorates or names.
type registration struct {
	kind     registrationKind
	name     string
	fn       *sitter.Node
	takesCtx bool
}

// Extract performs static, non-executing AST mining of one Python module's
// source, per §4.4. It is a pure function of src.
func Extract(src []byte) (*Result, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("extraction: parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	funcs := collectFunctions(root, src)
	regs := collectRegistrations(root, src, funcs)

	result := newResult()
	for _, r := range regs {
		if r.kind == regFilter {
			result.Filters[r.name] = extractFilter(r, src)
			continue
		}
		result.Tags[r.name] = extractTag(r, src)
	}
	return result, nil
}

// collectFunctions maps every function_definition's own name to its node,
// anywhere in the module (including nested inside classes), so a direct
// `register.tag("name", somefunc)` call can be resolved to a body.
func collectFunctions(root *sitter.Node, src []byte) map[string]*sitter.Node {
	funcs := make(map[string]*sitter.Node)
	walk(root, func(n *sitter.Node) {
		if n.Type() != "function_definition" {
			return
		}
		name := n.ChildByFieldName("name")
		if name == nil {
			return
		}
		funcs[nodeText(name, src)] = n
	})
	return funcs
}

// collectRegistrations finds every `@register.*` decorator and every
// direct `register.*(...)` call and resolves each to the function it
// registers.
func collectRegistrations(root *sitter.Node, src []byte, funcs map[string]*sitter.Node) []registration {
	var regs []registration

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "decorated_definition":
			regs = append(regs, decoratedRegistrations(n, src)...)
		case "call":
			if n.Parent() != nil && n.Parent().Type() == "decorator" {
				return // handled via decorated_definition above
			}
			if r, ok := directCallRegistration(n, src, funcs); ok {
				regs = append(regs, r)
			}
		}
	})
	return regs
}

// decoratedRegistrations inspects a decorated_definition's decorator list
// against its trailing function_definition.
func decoratedRegistrations(n *sitter.Node, src []byte) []registration {
	var fn *sitter.Node
	var decorators []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "decorator":
			decorators = append(decorators, c)
		case "function_definition":
			fn = c
		case "class_definition":
			// Descending into nested decorated methods happens via the
			// outer walk's generic recursion; nothing to do here.
		}
	}
	if fn == nil {
		return nil
	}

	var regs []registration
	for _, dec := range decorators {
		head := decoratorHead(dec)
		if head == nil {
			continue
		}
		kind, kwargs, positional, ok := registerDecoratorInfo(head, src)
		if !ok {
			continue
		}
		name := registeredName(kwargs, positional, fn, src)
		regs = append(regs, registration{
			kind:     kind,
			name:     name,
			fn:       fn,
			takesCtx: kwargs["takes_context"] == "True",
		})
	}
	return regs
}

// decoratorHead returns the decorator's single meaningful child: either a
// bare attribute (`@register.filter`) or a call (`@register.tag(...)`).
func decoratorHead(dec *sitter.Node) *sitter.Node {
	if dec.NamedChildCount() == 0 {
		return nil
	}
	return dec.NamedChild(0)
}

// registerDecoratorInfo classifies a decorator head as `register.<method>`,
// returning its kwargs (string-valued, best-effort) and positional string
// literal arguments.
func registerDecoratorInfo(head *sitter.Node, src []byte) (registrationKind, map[string]string, []string, bool) {
	var attr *sitter.Node
	kwargs := map[string]string{}
	var positional []string

	switch head.Type() {
	case "attribute":
		attr = head
	case "call":
		fn := head.ChildByFieldName("function")
		if fn == nil || fn.Type() != "attribute" {
			return 0, nil, nil, false
		}
		attr = fn
		if args := head.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				arg := args.NamedChild(i)
				switch arg.Type() {
				case "keyword_argument":
					kn := arg.ChildByFieldName("name")
					kv := arg.ChildByFieldName("value")
					if kn != nil && kv != nil {
						kwargs[nodeText(kn, src)] = nodeText(kv, src)
					}
				case "string":
					if v, ok := stringLiteralValue(nodeText(arg, src)); ok {
						positional = append(positional, v)
					}
				}
			}
		}
	default:
		return 0, nil, nil, false
	}

	obj := attr.ChildByFieldName("object")
	method := attr.ChildByFieldName("attribute")
	if obj == nil || method == nil || obj.Type() != "identifier" || nodeText(obj, src) != "register" {
		return 0, nil, nil, false
	}
	kind, ok := decoratorMethodKind[nodeText(method, src)]
	if !ok {
		return 0, nil, nil, false
	}
	return kind, kwargs, positional, true
}

// registeredName picks the registered name: the decorator's `name=` kwarg,
// else its first positional string literal, else the function's own name
// (§4.4).
func registeredName(kwargs map[string]string, positional []string, fn *sitter.Node, src []byte) string {
	if raw, ok := kwargs["name"]; ok {
		if v, ok := stringLiteralValue(raw); ok {
			return v
		}
	}
	if len(positional) > 0 {
		return positional[0]
	}
	if nameNode := fn.ChildByFieldName("name"); nameNode != nil {
		return nodeText(nameNode, src)
	}
	return ""
}

// directCallRegistration recognises `register.tag("name", func)` /
// `register.filter("name", func)` statement-level calls.
func directCallRegistration(n *sitter.Node, src []byte, funcs map[string]*sitter.Node) (registration, bool) {
	fnNode := n.ChildByFieldName("function")
	if fnNode == nil || fnNode.Type() != "attribute" {
		return registration{}, false
	}
	obj := fnNode.ChildByFieldName("object")
	method := fnNode.ChildByFieldName("attribute")
	if obj == nil || method == nil || obj.Type() != "identifier" || nodeText(obj, src) != "register" {
		return registration{}, false
	}
	kind, ok := decoratorMethodKind[nodeText(method, src)]
	if !ok {
		return registration{}, false
	}

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return registration{}, false
	}
	var name string
	var fnRef *sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "string":
			if v, ok := stringLiteralValue(nodeText(arg, src)); ok && name == "" {
				name = v
			}
		case "identifier":
			fnRef = funcs[nodeText(arg, src)]
		}
	}
	if fnRef == nil || name == "" {
		return registration{}, false
	}
	return registration{kind: kind, name: name, fn: fnRef}, true
}
