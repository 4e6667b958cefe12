// The text formatter styles output with Lip Gloss and detects color support
// with termenv, the same pairing the teacher's terminal output used. Dropped
// the teacher's Chroma-based syntax highlighting layer: it highlighted
// Dockerfile source, which has no analogue for Django templates, and (see
// DESIGN.md) isn't a dependency the teacher's actual build carries.
package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/sourcemap"
)

var (
	// useColors respects NO_COLOR, CLICOLOR_FORCE, and terminal detection.
	useColors = termenv.EnvColorProfile() != termenv.Ascii

	ruleCodeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")) // Red

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // White

	fileLocStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")) // Light gray

	lineNumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // Dark gray

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")) // Darker gray

	markerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")) // Red

	severityStyles = map[diag.Severity]lipgloss.Style{
		diag.SeverityError: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		diag.SeverityWarning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")), // Orange
		diag.SeverityInfo: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")), // Blue
		diag.SeverityHint: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245")), // Gray
	}
)

// TextOptions configures the text reporter output.
type TextOptions struct {
	// Color enables/disables colored output. Default: auto-detect.
	Color *bool

	// ShowSource shows source code snippets. Default: true.
	ShowSource bool
}

// DefaultTextOptions returns sensible defaults for text output.
func DefaultTextOptions() TextOptions {
	return TextOptions{
		Color:      nil, // auto-detect
		ShowSource: true,
	}
}

// TextReporter formats diagnostics as styled text output.
type TextReporter struct {
	opts TextOptions
}

// NewTextReporter creates a new text reporter with the given options.
func NewTextReporter(opts TextOptions) *TextReporter {
	return &TextReporter{opts: opts}
}

// Print writes diagnostics to the writer, grouped by file in ascending span order.
func (r *TextReporter) Print(w io.Writer, diagnostics []diag.Diagnostic, sources map[string][]byte) error {
	sorted := make([]diag.Diagnostic, len(diagnostics))
	copy(sorted, diagnostics)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	sourceMaps := make(map[string]*sourcemap.SourceMap, len(sources))

	for _, d := range sorted {
		sm, ok := sourceMaps[d.File]
		if !ok {
			if content, found := sources[d.File]; found {
				sm = sourcemap.New(content)
				sourceMaps[d.File] = sm
			}
		}
		if err := r.printDiagnostic(w, d, sm); err != nil {
			return err
		}
	}
	return nil
}

func (r *TextReporter) colorEnabled() bool {
	if r.opts.Color != nil {
		return *r.opts.Color
	}
	return useColors
}

// printDiagnostic formats a single diagnostic.
func (r *TextReporter) printDiagnostic(w io.Writer, d diag.Diagnostic, sm *sourcemap.SourceMap) error {
	colorEnabled := r.colorEnabled()

	sevStyle, ok := severityStyles[d.Severity]
	if !ok {
		sevStyle = severityStyles[diag.SeverityWarning]
	}

	var header string
	if colorEnabled {
		sevLabel := strings.ToUpper(d.Severity.String())
		header = fmt.Sprintf("\n%s %s",
			sevStyle.Render(sevLabel+":"),
			ruleCodeStyle.Render(string(d.Code)))
	} else {
		header = fmt.Sprintf("\n%s: %s", strings.ToUpper(d.Severity.String()), d.Code)
	}
	fmt.Fprintln(w, header)

	if colorEnabled {
		fmt.Fprintln(w, messageStyle.Render(d.Message))
	} else {
		fmt.Fprintln(w, d.Message)
	}

	if r.opts.ShowSource && sm != nil {
		r.printSource(w, d, sm, colorEnabled)
	}

	return nil
}

// printSource renders the source code snippet surrounding a diagnostic's span.
func (r *TextReporter) printSource(w io.Writer, d diag.Diagnostic, sm *sourcemap.SourceMap, colorEnabled bool) {
	startLine, _ := sm.Position(d.Span.Start)
	endOffset := d.Span.End
	if endOffset > d.Span.Start {
		endOffset-- // Span.End is exclusive; use its last byte
	}
	endLine, _ := sm.Position(endOffset)
	if endLine < startLine {
		endLine = startLine
	}

	before, after := 2, 2
	if startLine == endLine {
		before, after = 4, 4
	}

	loFirst := max(startLine-before, 0)
	hiLast := min(endLine+after, sm.LineCount()-1)

	fmt.Fprintln(w)
	if colorEnabled {
		fmt.Fprintln(w, fileLocStyle.Render(fmt.Sprintf("%s:%d", d.File, startLine+1)))
		fmt.Fprintln(w, separatorStyle.Render("────────────────────"))
	} else {
		fmt.Fprintf(w, "%s:%d\n", d.File, startLine+1)
		fmt.Fprintln(w, "--------------------")
	}

	for i := loFirst; i <= hiLast; i++ {
		isAffected := i >= startLine && i <= endLine
		lineContent := strings.TrimSuffix(sm.Line(i), "\r")

		var lineNum string
		if colorEnabled {
			lineNum = lineNumStyle.Render(fmt.Sprintf(" %3d │", i+1))
		} else {
			lineNum = fmt.Sprintf(" %3d |", i+1)
		}

		var marker string
		if isAffected {
			if colorEnabled {
				marker = markerStyle.Render(">>>")
			} else {
				marker = ">>>"
			}
		} else {
			marker = "   "
		}

		fmt.Fprintf(w, "%s %s %s\n", lineNum, marker, lineContent)
	}

	if colorEnabled {
		fmt.Fprintln(w, separatorStyle.Render("────────────────────"))
	} else {
		fmt.Fprintln(w, "--------------------")
	}
}

// PrintText is a convenience function that uses default options.
func PrintText(w io.Writer, diagnostics []diag.Diagnostic, sources map[string][]byte) error {
	r := NewTextReporter(DefaultTextOptions())
	return r.Print(w, diagnostics, sources)
}

// PrintTextPlain writes diagnostics without any styling (for non-TTY output).
func PrintTextPlain(w io.Writer, diagnostics []diag.Diagnostic, sources map[string][]byte) error {
	noColor := false
	opts := TextOptions{Color: &noColor, ShowSource: true}
	r := NewTextReporter(opts)
	return r.Print(w, diagnostics, sources)
}
