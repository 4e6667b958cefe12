package blocktree

import (
	"testing"

	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/tagspec"
	"github.com/djls/djls/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specs() map[string]tagspec.TagSpec {
	return tagspec.Assemble(nil, nil).Tags
}

func parseNodes(t *testing.T, src string) []template.Node {
	t.Helper()
	r := template.Parse([]byte(src))
	require.Empty(t, r.Errors)
	return r.Nodes
}

func codes(diags []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func TestBuildWellFormedIfElse(t *testing.T) {
	t.Parallel()
	nodes := parseNodes(t, `{% if x %}a{% else %}b{% endif %}`)
	result := Build("t.html", nodes, specs())

	assert.Empty(t, result.Diagnostics)
	require.Len(t, result.Roots, 1)
	block := result.Roots[0].Nested
	require.NotNil(t, block)
	assert.Equal(t, "if", block.Opener.Name)
	assert.Equal(t, "endif", block.Closer.Name)
	assert.False(t, block.Unclosed)

	var sawElse bool
	for _, item := range block.Body {
		if item.Section != nil && item.Section.Tag.Name == "else" {
			sawElse = true
		}
	}
	assert.True(t, sawElse)
}

func TestBuildNestedForInsideIf(t *testing.T) {
	t.Parallel()
	nodes := parseNodes(t, `{% if items %}{% for i in items %}{{ i }}{% empty %}none{% endfor %}{% endif %}`)
	result := Build("t.html", nodes, specs())

	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Roots, 1)
	outer := result.Roots[0].Nested
	require.Len(t, outer.Body, 1)
	inner := outer.Body[0].Nested
	require.NotNil(t, inner)
	assert.Equal(t, "for", inner.Opener.Name)
	assert.Equal(t, "endfor", inner.Closer.Name)
}

func TestBuildUnclosedTagReportsS100(t *testing.T) {
	t.Parallel()
	nodes := parseNodes(t, `{% if x %}a`)
	result := Build("t.html", nodes, specs())

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, diag.CodeUnclosedTag, result.Diagnostics[0].Code)
	require.Len(t, result.Roots, 1)
	assert.True(t, result.Roots[0].Nested.Unclosed)
}

func TestBuildUnbalancedCloserReportsS101(t *testing.T) {
	t.Parallel()
	nodes := parseNodes(t, `hello{% endif %}`)
	result := Build("t.html", nodes, specs())

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, diag.CodeUnbalancedStruct, result.Diagnostics[0].Code)
}

func TestBuildOrphanedIntermediateReportsS102(t *testing.T) {
	t.Parallel()
	nodes := parseNodes(t, `{% empty %}`)
	result := Build("t.html", nodes, specs())

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, diag.CodeOrphanedTag, result.Diagnostics[0].Code)
}

func TestBuildMismatchedBlockNameReportsS103(t *testing.T) {
	t.Parallel()
	nodes := parseNodes(t, `{% block content %}x{% endblock other %}`)
	result := Build("t.html", nodes, specs())

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, diag.CodeUnmatchedBlockName, result.Diagnostics[0].Code)
}

func TestBuildOpaqueVerbatimSwallowsNestedTagSyntax(t *testing.T) {
	t.Parallel()
	nodes := parseNodes(t, `{% verbatim %}{% if %}{% endverbatim %}`)
	result := Build("t.html", nodes, specs())

	assert.Empty(t, result.Diagnostics, "the literal {%% if %%} inside verbatim must not be treated as a real opener")
	require.Len(t, result.Roots, 1)
	block := result.Roots[0].Nested
	require.NotNil(t, block)
	assert.Equal(t, "endverbatim", block.Closer.Name)
	require.Len(t, block.Body, 1)
	assert.NotNil(t, block.Body[0].Leaf, "the inner {%% if %%} must be a raw leaf, not a nested block")

	require.Len(t, result.Opaque, 1)
	assert.True(t, result.Opaque.Contains(block.Span.Start+1))
	assert.False(t, result.Opaque.Contains(block.Span.End+1))
}
