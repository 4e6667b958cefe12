package reporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/djls/djls/internal/diag"
)

func TestGitHubActionsReporter(t *testing.T) {
	source := []byte("line0\nline1\nline2\nline3\nline4\n{{ x }}\nline6\nline7\nline8\nline9\nfoo {{ bad }}\nline11\nline12\n")
	sources := map[string][]byte{"home.html": source}

	diagnostics := []diag.Diagnostic{
		{
			File:     "home.html",
			Span:     diag.Span{Start: 30, End: 39}, // line 5, col 0
			Code:     diag.CodeUnloadedTag,
			Message:  "Always tag the version of an image explicitly",
			Severity: diag.SeverityWarning,
		},
		{
			File:     "home.html",
			Span:     diag.Span{Start: 64, End: 78}, // line 10, col 2 through line 11, col 2
			Code:     diag.CodeUnclosedTag,
			Message:  "Use absolute WORKDIR",
			Severity: diag.SeverityError,
		},
	}

	var buf bytes.Buffer
	reporter := NewGitHubActionsReporter(&buf)

	err := reporter.Report(diagnostics, sources, ReportMetadata{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), output)
	}

	// Check first line (warning)
	if !strings.HasPrefix(lines[0], "::warning ") {
		t.Errorf("Expected first line to be warning, got: %s", lines[0])
	}
	if !strings.Contains(lines[0], "file=home.html") {
		t.Errorf("Expected file=home.html in: %s", lines[0])
	}
	if !strings.Contains(lines[0], "line=6") {
		t.Errorf("Expected line=6 in: %s", lines[0])
	}
	if !strings.Contains(lines[0], "col=1") {
		t.Errorf("Expected col=1 (0-based column 0 becomes 1-based) in: %s", lines[0])
	}
	if !strings.Contains(lines[0], "title="+string(diag.CodeUnloadedTag)) {
		t.Errorf("Expected title=%s in: %s", diag.CodeUnloadedTag, lines[0])
	}

	// Check second line (error)
	if !strings.HasPrefix(lines[1], "::error ") {
		t.Errorf("Expected second line to be error, got: %s", lines[1])
	}
	if !strings.Contains(lines[1], "endLine=12") {
		t.Errorf("Expected endLine=12 in: %s", lines[1])
	}
}

func TestGitHubActionsReporterSeverityMapping(t *testing.T) {
	tests := []struct {
		name     string
		severity diag.Severity
		expected string
	}{
		{"error", diag.SeverityError, "error"},
		{"warning", diag.SeverityWarning, "warning"},
		{"info", diag.SeverityInfo, "notice"},
		{"hint", diag.SeverityHint, "notice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := severityToGitHubLevel(tt.severity)
			if result != tt.expected {
				t.Errorf("severityToGitHubLevel(%v) = %q, want %q", tt.severity, result, tt.expected)
			}
		})
	}
}

func TestGitHubActionsReporterEmpty(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewGitHubActionsReporter(&buf)

	err := reporter.Report(nil, nil, ReportMetadata{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("Expected empty output, got: %q", buf.String())
	}
}

func TestGitHubActionsReporterNoSourceOmitsLine(t *testing.T) {
	diagnostics := []diag.Diagnostic{
		{
			File:     "home.html",
			Span:     diag.Span{Start: 0, End: 4},
			Code:     diag.CodeParseError,
			Message:  "no source available",
			Severity: diag.SeverityWarning,
		},
	}

	var buf bytes.Buffer
	reporter := NewGitHubActionsReporter(&buf)

	err := reporter.Report(diagnostics, nil, ReportMetadata{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "line=") {
		t.Errorf("Expected no line= without a source map, got: %s", output)
	}
	if !strings.Contains(output, "file=home.html") {
		t.Errorf("Expected file=home.html in: %s", output)
	}
}

func TestGitHubActionsReporterMessageEscaping(t *testing.T) {
	diagnostics := []diag.Diagnostic{
		{
			File:     "home.html",
			Span:     diag.Span{Start: 0, End: 4},
			Code:     "TEST",
			Message:  "Line 1\nLine 2\r\nLine 3",
			Severity: diag.SeverityWarning,
		},
	}

	var buf bytes.Buffer
	reporter := NewGitHubActionsReporter(&buf)

	err := reporter.Report(diagnostics, nil, ReportMetadata{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	output := buf.String()

	// The output should be a single line (except the final newline)
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 1 {
		t.Errorf("Expected single line output, got %d lines: %q", len(lines), output)
	}

	if !strings.Contains(output, "%0A") {
		t.Errorf("Expected %%0A (escaped newline) in: %s", output)
	}
}

func TestGitHubActionsReporterPropertyEscaping(t *testing.T) {
	diagnostics := []diag.Diagnostic{
		{
			File:     "path/to:file,with:special.html",
			Span:     diag.Span{Start: 0, End: 4},
			Code:     "RULE:WITH,SPECIAL",
			Message:  "Message with : and , should NOT be escaped",
			Severity: diag.SeverityWarning,
		},
	}

	var buf bytes.Buffer
	reporter := NewGitHubActionsReporter(&buf)

	err := reporter.Report(diagnostics, nil, ReportMetadata{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	output := buf.String()

	// File path should have : and , escaped
	if !strings.Contains(output, "file=path/to%3Afile%2Cwith%3Aspecial.html") {
		t.Errorf("Expected escaped file path, got: %s", output)
	}

	// Title (diagnostic code) should have : and , escaped
	if !strings.Contains(output, "title=RULE%3AWITH%2CSPECIAL") {
		t.Errorf("Expected escaped title, got: %s", output)
	}

	// Message should NOT have : and , escaped (only in properties)
	if !strings.Contains(output, "::Message with : and , should NOT be escaped") {
		t.Errorf("Message should not escape : or , - got: %s", output)
	}
}

func TestGitHubActionsReporterSorting(t *testing.T) {
	diagnostics := []diag.Diagnostic{
		{
			File:     "b.html",
			Span:     diag.Span{Start: 10, End: 14},
			Code:     "TEST",
			Message:  "B at 10",
			Severity: diag.SeverityWarning,
		},
		{
			File:     "a.html",
			Span:     diag.Span{Start: 5, End: 9},
			Code:     "TEST",
			Message:  "A at 5",
			Severity: diag.SeverityWarning,
		},
		{
			File:     "a.html",
			Span:     diag.Span{Start: 1, End: 4},
			Code:     "TEST",
			Message:  "A at 1",
			Severity: diag.SeverityWarning,
		},
	}

	var buf bytes.Buffer
	reporter := NewGitHubActionsReporter(&buf)

	err := reporter.Report(diagnostics, nil, ReportMetadata{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}

	// Should be sorted: a.html@1, a.html@5, b.html@10
	if !strings.Contains(lines[0], "a.html") || !strings.Contains(lines[0], "A at 1") {
		t.Errorf("First line should be a.html/A at 1, got: %s", lines[0])
	}
	if !strings.Contains(lines[1], "a.html") || !strings.Contains(lines[1], "A at 5") {
		t.Errorf("Second line should be a.html/A at 5, got: %s", lines[1])
	}
	if !strings.Contains(lines[2], "b.html") || !strings.Contains(lines[2], "B at 10") {
		t.Errorf("Third line should be b.html/B at 10, got: %s", lines[2])
	}
}
