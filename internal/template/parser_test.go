package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djls/djls/internal/diag"
)

func TestParseSpansCoverSource(t *testing.T) {
	t.Parallel()

	sources := []string{
		"",
		"plain text only",
		"{% if x %}hi{% endif %}",
		"before {{ value|default:\"x\" }} after",
		"{# a comment #}{% load i18n %}",
		"{% unterminated",
		"{{ unterminated",
		"text {% bad then {% if x %}ok{% endif %}",
	}

	for _, src := range sources {
		src := src
		t.Run(src, func(t *testing.T) {
			t.Parallel()
			result := Parse([]byte(src))
			pos := 0
			for _, n := range result.Nodes {
				require.Equal(t, pos, n.Span.Start, "node spans must be contiguous with no gaps")
				require.True(t, n.Span.Valid())
				pos = n.Span.End
			}
			assert.Equal(t, len(src), pos, "concatenation of spans must cover the entire input")
		})
	}
}

func TestParseIsIdempotent(t *testing.T) {
	t.Parallel()
	src := []byte(`{% for item in items %}{{ item|lower|default:"x" }}{% endfor %}`)
	a := Parse(src)
	b := Parse(src)
	assert.Equal(t, a.Nodes, b.Nodes)
	assert.Equal(t, a.Errors, b.Errors)
}

func TestParseTagBitsExcludeName(t *testing.T) {
	t.Parallel()
	result := Parse([]byte(`{% for item in items football %}`))
	require.Len(t, result.Nodes, 1)
	tag := result.Nodes[0]
	assert.Equal(t, KindTag, tag.Kind)
	assert.Equal(t, "for", tag.Name)
	assert.Equal(t, []string{"item", "in", "items", "football"}, tag.Bits)
}

func TestParseTagBitsRespectQuotedSpaces(t *testing.T) {
	t.Parallel()
	result := Parse([]byte(`{% trans "hello world" as greeting %}`))
	require.Len(t, result.Nodes, 1)
	tag := result.Nodes[0]
	assert.Equal(t, "trans", tag.Name)
	assert.Equal(t, []string{`"hello world"`, "as", "greeting"}, tag.Bits)
}

func TestParseVariableFiltersAndSpans(t *testing.T) {
	t.Parallel()
	src := `{{ value|lower|default:"x" }}`
	result := Parse([]byte(src))
	require.Len(t, result.Nodes, 1)
	v := result.Nodes[0]
	require.Equal(t, KindVariable, v.Kind)
	assert.Equal(t, "value", v.Expression)
	require.Len(t, v.Filters, 2)

	assert.Equal(t, "lower", v.Filters[0].Name)
	assert.Nil(t, v.Filters[0].Arg)
	assert.Equal(t, "lower", src[v.Filters[0].Span.Start:v.Filters[0].Span.End])

	assert.Equal(t, "default", v.Filters[1].Name)
	require.NotNil(t, v.Filters[1].Arg)
	assert.Equal(t, `"x"`, *v.Filters[1].Arg)
	assert.Equal(t, `default:"x"`, src[v.Filters[1].Span.Start:v.Filters[1].Span.End])

	for _, f := range v.Filters {
		assert.True(t, f.Span.Start >= v.Span.Start && f.Span.End <= v.Span.End,
			"filter span must lie within the containing variable's span")
	}
}

func TestParseFilterPipeInsideQuotesDoesNotSplit(t *testing.T) {
	t.Parallel()
	result := Parse([]byte(`{{ value|default:"a|b" }}`))
	require.Len(t, result.Nodes, 1)
	v := result.Nodes[0]
	require.Len(t, v.Filters, 1)
	require.NotNil(t, v.Filters[0].Arg)
	assert.Equal(t, `"a|b"`, *v.Filters[0].Arg)
}

func TestParseUnterminatedTagResynchronizes(t *testing.T) {
	t.Parallel()
	// No "%}" appears anywhere after the broken opener, so it can only
	// resynchronize at the next "{{" delimiter, not claim a later tag's
	// closer as its own.
	src := `before {% broken {{ value }}end`
	result := Parse([]byte(src))

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "unterminated {% %} tag", result.Errors[0].Message)
	assert.Equal(t, diag.Span{Start: 7, End: 17}, result.Errors[0].Span)

	var kinds []Kind
	for _, n := range result.Nodes {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []Kind{KindText, KindText, KindVariable, KindText}, kinds,
		"parser must resynchronize at the next delimiter and keep parsing")
	assert.Equal(t, KindVariable, result.Nodes[2].Kind)
	assert.Equal(t, "value", result.Nodes[2].Expression)
}

func TestParseUnterminatedVariableAtEOF(t *testing.T) {
	t.Parallel()
	result := Parse([]byte(`hello {{ oops`))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "unterminated {{ }} variable", result.Errors[0].Message)
	last := result.Nodes[len(result.Nodes)-1]
	assert.Equal(t, KindText, last.Kind)
	assert.Equal(t, len(`hello {{ oops`), last.Span.End)
}

func TestParseEmptyTemplate(t *testing.T) {
	t.Parallel()
	result := Parse(nil)
	assert.Empty(t, result.Nodes)
	assert.Empty(t, result.Errors)
}

func TestParseComment(t *testing.T) {
	t.Parallel()
	result := Parse([]byte(`{# note #}`))
	require.Len(t, result.Nodes, 1)
	assert.Equal(t, KindComment, result.Nodes[0].Kind)
	assert.Equal(t, " note ", string(result.Nodes[0].Raw))
}
