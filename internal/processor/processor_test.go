package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djls/djls/internal/diag"
)

func diagAt(file string, start int, code diag.Code) diag.Diagnostic {
	return diag.New(file, diag.Span{Start: start, End: start + 1}, code, "test")
}

func TestDeduplicationRemovesRepeats(t *testing.T) {
	t.Parallel()
	p := NewDeduplication()
	diags := []diag.Diagnostic{
		diagAt("a.html", 10, diag.CodeUnclosedTag),
		diagAt("a.html", 10, diag.CodeUnclosedTag),
		diagAt("a.html", 20, diag.CodeUnclosedTag),
	}

	got := p.Process(diags, NewContext(nil))
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].Span.Start)
	assert.Equal(t, 20, got[1].Span.Start)
}

func TestDeduplicationDistinguishesByCode(t *testing.T) {
	t.Parallel()
	p := NewDeduplication()
	diags := []diag.Diagnostic{
		diagAt("a.html", 10, diag.CodeUnclosedTag),
		diagAt("a.html", 10, diag.CodeOrphanedTag),
	}

	got := p.Process(diags, NewContext(nil))
	assert.Len(t, got, 2)
}

func TestSortingOrdersByFileThenSpanThenCode(t *testing.T) {
	t.Parallel()
	p := NewSorting()
	diags := []diag.Diagnostic{
		diagAt("b.html", 5, diag.CodeUnclosedTag),
		diagAt("a.html", 20, diag.CodeUnclosedTag),
		diagAt("a.html", 10, diag.CodeOrphanedTag),
		diagAt("a.html", 10, diag.CodeUnclosedTag),
	}

	got := p.Process(diags, NewContext(nil))
	require.Len(t, got, 4)
	assert.Equal(t, "a.html", got[0].File)
	assert.Equal(t, diag.CodeUnclosedTag, got[0].Code)
	assert.Equal(t, diag.CodeOrphanedTag, got[1].Code)
	assert.Equal(t, 20, got[2].Span.Start)
	assert.Equal(t, "b.html", got[3].File)
}

func TestChainRunsProcessorsInSequence(t *testing.T) {
	t.Parallel()
	chain := NewChain(NewDeduplication(), NewSorting())
	diags := []diag.Diagnostic{
		diagAt("b.html", 1, diag.CodeUnclosedTag),
		diagAt("a.html", 1, diag.CodeUnclosedTag),
		diagAt("a.html", 1, diag.CodeUnclosedTag),
	}

	got := chain.Process(diags, NewContext(nil))
	require.Len(t, got, 2)
	assert.Equal(t, "a.html", got[0].File)
	assert.Equal(t, "b.html", got[1].File)
}
