package reporter

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/sourcemap"
)

// MarkdownReporter formats diagnostics as concise markdown tables.
// Designed for AI agents working on Django templates - token-efficient and
// actionable.
type MarkdownReporter struct {
	writer io.Writer
}

// NewMarkdownReporter creates a new Markdown reporter.
func NewMarkdownReporter(w io.Writer) *MarkdownReporter {
	return &MarkdownReporter{writer: w}
}

// Report implements Reporter.
func (r *MarkdownReporter) Report(diagnostics []diag.Diagnostic, sources map[string][]byte, _ ReportMetadata) error {
	if len(diagnostics) == 0 {
		_, err := fmt.Fprintln(r.writer, "**No issues found**")
		return err
	}

	sorted := SortDiagnosticsBySeverity(diagnostics)

	// Normalize file paths for consistent output
	for i := range sorted {
		sorted[i].File = filepath.ToSlash(sorted[i].File)
	}

	lineOf := lineNumberResolver(sources)

	// Count files and issues
	fileSet := make(map[string]struct{})
	for _, d := range sorted {
		fileSet[d.File] = struct{}{}
	}
	fileCount := len(fileSet)

	// Write summary and table
	if fileCount == 1 {
		var filename string
		for f := range fileSet {
			filename = f
		}
		return r.writeSingleFileTable(sorted, filename, lineOf)
	}

	return r.writeMultiFileTable(sorted, fileCount, lineOf)
}

// lineNumberResolver returns a function that maps a diagnostic to its
// 1-based start line within sources, or 0 if no source is available for
// that file.
func lineNumberResolver(sources map[string][]byte) func(diag.Diagnostic) int {
	sourceMaps := make(map[string]*sourcemap.SourceMap, len(sources))
	return func(d diag.Diagnostic) int {
		sm, ok := sourceMaps[d.File]
		if !ok {
			if content, found := sources[d.File]; found {
				sm = sourcemap.New(content)
			}
			sourceMaps[d.File] = sm
		}
		if sm == nil {
			return 0
		}
		line, _ := sm.Position(d.Span.Start)
		return line + 1
	}
}

// writeSingleFileTable writes a markdown table for diagnostics in a single file.
func (r *MarkdownReporter) writeSingleFileTable(sorted []diag.Diagnostic, filename string, lineOf func(diag.Diagnostic) int) error {
	if _, err := fmt.Fprintf(r.writer, "**%d %s** in `%s`\n\n",
		len(sorted), pluralize(len(sorted), "issue", "issues"), filename); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(r.writer, "| Line | Issue |"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(r.writer, "|------|-------|"); err != nil {
		return err
	}

	for _, d := range sorted {
		if _, err := fmt.Fprintf(r.writer, "| %s | %s %s %s |\n",
			formatLineNumber(lineOf(d)), severityEmoji(d.Severity), string(d.Code), escapeMarkdown(d.Message)); err != nil {
			return err
		}
	}

	return nil
}

// writeMultiFileTable writes a markdown table for diagnostics across multiple files.
func (r *MarkdownReporter) writeMultiFileTable(sorted []diag.Diagnostic, fileCount int, lineOf func(diag.Diagnostic) int) error {
	if _, err := fmt.Fprintf(r.writer, "**%d %s** across %d files\n\n",
		len(sorted), pluralize(len(sorted), "issue", "issues"), fileCount); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(r.writer, "| File | Line | Issue |"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(r.writer, "|------|------|-------|"); err != nil {
		return err
	}

	for _, d := range sorted {
		if _, err := fmt.Fprintf(r.writer, "| %s | %s | %s %s %s |\n",
			d.File, formatLineNumber(lineOf(d)), severityEmoji(d.Severity), string(d.Code), escapeMarkdown(d.Message)); err != nil {
			return err
		}
	}

	return nil
}

// formatLineNumber returns the display string for a diagnostic's line number.
func formatLineNumber(line int) string {
	if line > 0 {
		return strconv.Itoa(line)
	}
	return "-"
}

// SortDiagnosticsBySeverity sorts diagnostics by severity (errors first),
// then by file and span start. Uses stable sort to preserve original order
// for equal-priority items.
func SortDiagnosticsBySeverity(diagnostics []diag.Diagnostic) []diag.Diagnostic {
	sorted := make([]diag.Diagnostic, len(diagnostics))
	copy(sorted, diagnostics)

	sort.SliceStable(sorted, func(i, j int) bool {
		// shouldSwap returns true if i should come AFTER j,
		// so we invert arguments to get "less than" semantics
		return shouldSwap(sorted[j], sorted[i])
	})

	return sorted
}

// shouldSwap returns true if a should come after b in the sorted output.
func shouldSwap(a, b diag.Diagnostic) bool {
	// Sort by severity first (error < warning < info < hint)
	aPriority := severityPriority(a.Severity)
	bPriority := severityPriority(b.Severity)
	if aPriority != bPriority {
		return aPriority > bPriority
	}

	// Then by file
	if a.File != b.File {
		return a.File > b.File
	}

	// Then by span start
	return a.Span.Start > b.Span.Start
}

// severityPriority returns a numeric priority for sorting (lower = more severe).
func severityPriority(s diag.Severity) int {
	switch s {
	case diag.SeverityError:
		return 0
	case diag.SeverityWarning:
		return 1
	case diag.SeverityInfo:
		return 2
	case diag.SeverityHint:
		return 3
	case diag.SeverityOff:
		return 5 // never reached: off-severity diagnostics are filtered upstream
	default:
		return 4
	}
}

// severityEmoji returns an emoji indicator for the severity level.
func severityEmoji(s diag.Severity) string {
	switch s {
	case diag.SeverityError:
		return "❌"
	case diag.SeverityWarning:
		return "⚠️"
	case diag.SeverityInfo:
		return "ℹ️"
	case diag.SeverityHint:
		return "💡"
	case diag.SeverityOff:
		return "⭕" // never reached
	default:
		return "⚠️"
	}
}

// escapeMarkdown escapes special markdown characters in table cells.
func escapeMarkdown(s string) string {
	// Escape pipe characters which break table formatting
	s = strings.ReplaceAll(s, "|", "\\|")
	// Replace newlines with spaces
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}

// pluralize returns singular or plural form based on count.
func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
