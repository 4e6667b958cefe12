// Package sourcemap converts between byte offsets (the core's only unit of
// position, per internal/diag.Span) and line/column positions, and extracts
// source snippets around a span for CLI and LSP output. Nothing inside the
// core's tracked queries needs line/column math; it happens only at the
// edge, here.
package sourcemap

import (
	"bytes"
	"sort"
	"strings"
)

// SourceMap provides efficient byte-offset <-> line/column conversion and
// snippet extraction for one file's content. Lines are split on '\n'; a
// trailing '\r' is trimmed so CRLF sources report the same columns as LF.
// Line and column numbers are both 0-based.
type SourceMap struct {
	source      []byte
	lines       []string
	lineOffsets []int
}

// New builds a SourceMap over source, precomputing line boundaries once.
func New(source []byte) *SourceMap {
	raw := bytes.Split(source, []byte{'\n'})
	lines := make([]string, len(raw))
	offsets := make([]int, len(raw))

	offset := 0
	for i, line := range raw {
		offsets[i] = offset
		lines[i] = strings.TrimSuffix(string(line), "\r")
		offset += len(line) + 1
	}

	return &SourceMap{source: source, lines: lines, lineOffsets: offsets}
}

// Source returns the raw content the map was built from.
func (sm *SourceMap) Source() []byte { return sm.source }

// LineCount returns the total number of lines.
func (sm *SourceMap) LineCount() int { return len(sm.lines) }

// Line returns line n's text (0-based), or "" if out of range.
func (sm *SourceMap) Line(n int) string {
	if n < 0 || n >= len(sm.lines) {
		return ""
	}
	return sm.lines[n]
}

// Position converts a byte offset into a 0-based (line, column) pair. A
// column is itself a byte offset within its line; callers that need
// UTF-16 code units (LSP's wire unit) convert separately at the protocol
// boundary. Offsets past the end of the source clamp to the last position.
func (sm *SourceMap) Position(offset int) (line, column int) {
	if offset < 0 {
		return 0, 0
	}
	if offset > len(sm.source) {
		offset = len(sm.source)
	}
	i := sort.Search(len(sm.lineOffsets), func(i int) bool {
		return sm.lineOffsets[i] > offset
	})
	line = i - 1
	if line < 0 {
		line = 0
	}
	if line >= len(sm.lines) {
		line = len(sm.lines) - 1
	}
	column = offset - sm.lineOffsets[line]
	if column < 0 {
		column = 0
	}
	return line, column
}

// Snippet extracts lines [startLine, endLine] (0-based, inclusive) joined
// by newlines. Out-of-range bounds clamp; an empty result is returned for
// an inverted range.
func (sm *SourceMap) Snippet(startLine, endLine int) string {
	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(sm.lines) {
		endLine = len(sm.lines) - 1
	}
	if startLine > endLine || startLine >= len(sm.lines) {
		return ""
	}
	return strings.Join(sm.lines[startLine:endLine+1], "\n")
}

// SnippetAround extracts context lines around line, before/after lines on
// each side, clamped to available lines.
func (sm *SourceMap) SnippetAround(line, before, after int) string {
	return sm.Snippet(line-before, line+after)
}
