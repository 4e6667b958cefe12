package features

import (
	"strings"
	"testing"

	"github.com/djls/djls/internal/extraction"
	"github.com/djls/djls/internal/loadscope"
	"github.com/djls/djls/internal/tagspec"
)

func TestSnippetRequiredVariableArg(t *testing.T) {
	t.Parallel()
	spec := tagspec.TagSpec{
		ArgStructure: []extraction.Arg{
			{Name: "target", Kind: extraction.ArgVariable, Required: true},
		},
	}
	got := Snippet("url", spec)
	want := "{% url ${1:target} %}"
	if got != want {
		t.Errorf("Snippet() = %q, want %q", got, want)
	}
}

func TestSnippetOptionalArgIsBracketed(t *testing.T) {
	t.Parallel()
	spec := tagspec.TagSpec{
		ArgStructure: []extraction.Arg{
			{Name: "count", Kind: extraction.ArgVariable, Required: false},
		},
	}
	got := Snippet("cycle", spec)
	if !strings.Contains(got, "[${1:count}]") {
		t.Errorf("Snippet() = %q, want an optional arg bracketed", got)
	}
}

func TestSnippetChoiceArg(t *testing.T) {
	t.Parallel()
	spec := tagspec.TagSpec{
		ArgStructure: []extraction.Arg{
			{Kind: extraction.ArgChoice, Choices: []string{"on", "off"}, Required: true},
		},
	}
	got := Snippet("autoescape", spec)
	want := "{% autoescape ${1|on,off|} %}"
	if got != want {
		t.Errorf("Snippet() = %q, want %q", got, want)
	}
}

func TestSnippetLiteralArg(t *testing.T) {
	t.Parallel()
	spec := tagspec.TagSpec{
		ArgStructure: []extraction.Arg{
			{Kind: extraction.ArgLiteral, Literal: "from", Required: true},
		},
	}
	got := Snippet("load", spec)
	want := "{% load from %}"
	if got != want {
		t.Errorf("Snippet() = %q, want %q", got, want)
	}
}

func TestCompletionsFiltersByPrefixAndSorts(t *testing.T) {
	t.Parallel()
	result := &tagspec.Result{Tags: map[string]tagspec.TagSpec{
		"if":     {},
		"ifchanged": {},
		"for":    {},
	}}
	items := Completions(result, nil, 0, "if")
	if len(items) != 2 {
		t.Fatalf("Completions() len = %d, want 2", len(items))
	}
	if items[0].Label != "if" || items[1].Label != "ifchanged" {
		t.Errorf("Completions() labels = %v, want sorted [if ifchanged]", items)
	}
}

func TestCompletionsAnnotatesRequiresLoad(t *testing.T) {
	t.Parallel()
	result := &tagspec.Result{Tags: map[string]tagspec.TagSpec{
		"trans": {},
	}}
	oracle := loadscope.NewOracle(nil, map[string][]string{"trans": {"i18n"}}, nil, false)
	items := Completions(result, oracle, 0, "")
	if len(items) != 1 {
		t.Fatalf("Completions() len = %d, want 1", len(items))
	}
	if !items[0].RequiresLoad {
		t.Error("Completions()[0].RequiresLoad = false, want true")
	}
	if items[0].Detail != "requires {% load i18n %}" {
		t.Errorf("Completions()[0].Detail = %q, want load guidance", items[0].Detail)
	}
}

func TestHoverTagDescribesBlockStructure(t *testing.T) {
	t.Parallel()
	spec := tagspec.TagSpec{EndTag: "endif", IntermediateTags: []string{"elif", "else"}}
	info := HoverTag("if", spec, nil, 0)
	if !strings.Contains(info.Markdown, "endif") {
		t.Errorf("HoverTag().Markdown = %q, want it to mention endif", info.Markdown)
	}
	if info.EndTag != "endif" {
		t.Errorf("HoverTag().EndTag = %q, want endif", info.EndTag)
	}
}

func TestHoverFilterDescribesArity(t *testing.T) {
	t.Parallel()
	info := HoverFilter("default", extraction.ArityRequired, nil, 0)
	if !strings.Contains(info.Markdown, "Requires an argument") {
		t.Errorf("HoverFilter().Markdown = %q, want arity description", info.Markdown)
	}
}
