package reporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/djls/djls/internal/diag"
)

func TestPrintTextPlain_SingleDiagnostic(t *testing.T) {
	source := []byte("{% extends 'base.html' %}\n{% trans 'hi' %}\n{% endblock %}\n")
	diagnostics := []diag.Diagnostic{
		{
			File:     "home.html",
			Span:     diag.Span{Start: 27, End: 41}, // line 1 (0-based)
			Code:     diag.CodeUnloadedTag,
			Message:  "'trans' is not loaded",
			Severity: diag.SeverityWarning,
		},
	}
	sources := map[string][]byte{"home.html": source}

	var buf bytes.Buffer
	err := PrintTextPlain(&buf, diagnostics, sources)
	if err != nil {
		t.Fatalf("PrintTextPlain failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "WARNING: "+string(diag.CodeUnloadedTag)) {
		t.Errorf("Missing warning header, got:\n%s", output)
	}
	if !strings.Contains(output, "'trans' is not loaded") {
		t.Errorf("Missing message, got:\n%s", output)
	}

	if !strings.Contains(output, "home.html:2") {
		t.Errorf("Missing file:line header, got:\n%s", output)
	}
	if !strings.Contains(output, "--------------------") {
		t.Errorf("Missing separator, got:\n%s", output)
	}
	if !strings.Contains(output, ">>>") {
		t.Errorf("Missing line marker, got:\n%s", output)
	}
}

func TestPrintTextPlain_DifferentSeverities(t *testing.T) {
	source := []byte("{% extends 'base.html' %}")
	tests := []struct {
		severity diag.Severity
		want     string
	}{
		{diag.SeverityError, "ERROR:"},
		{diag.SeverityWarning, "WARNING:"},
		{diag.SeverityInfo, "INFO:"},
		{diag.SeverityHint, "HINT:"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			diagnostics := []diag.Diagnostic{
				{
					File:     "home.html",
					Span:     diag.Span{Start: 0, End: 8},
					Code:     "TEST",
					Message:  "Test",
					Severity: tt.severity,
				},
			}
			sources := map[string][]byte{"home.html": source}

			var buf bytes.Buffer
			err := PrintTextPlain(&buf, diagnostics, sources)
			if err != nil {
				t.Fatalf("PrintTextPlain failed: %v", err)
			}

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Expected %q in output, got:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestPrintTextPlain_NoSourceOmitsSnippet(t *testing.T) {
	diagnostics := []diag.Diagnostic{
		{
			File:     "home.html",
			Span:     diag.Span{Start: 0, End: 8},
			Code:     "TEST",
			Message:  "no source available",
			Severity: diag.SeverityWarning,
		},
	}

	var buf bytes.Buffer
	err := PrintTextPlain(&buf, diagnostics, nil)
	if err != nil {
		t.Fatalf("PrintTextPlain failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "WARNING: TEST") {
		t.Errorf("Missing warning, got:\n%s", output)
	}
	if strings.Contains(output, "--------------------") {
		t.Errorf("Diagnostic without source should not have a snippet, got:\n%s", output)
	}
}

func TestPrintTextPlain_Sorted(t *testing.T) {
	source := []byte("line1\nline2\nline3\nline4\nline5\n")
	diagnostics := []diag.Diagnostic{
		{
			File:     "b.html",
			Span:     diag.Span{Start: 12, End: 17}, // line3
			Code:     "Rule2",
			Message:  "Second file",
			Severity: diag.SeverityWarning,
		},
		{
			File:     "a.html",
			Span:     diag.Span{Start: 24, End: 29}, // line5
			Code:     "Rule3",
			Message:  "First file, later line",
			Severity: diag.SeverityWarning,
		},
		{
			File:     "a.html",
			Span:     diag.Span{Start: 0, End: 5}, // line1
			Code:     "Rule1",
			Message:  "First file, earlier line",
			Severity: diag.SeverityWarning,
		},
	}
	sources := map[string][]byte{
		"a.html": source,
		"b.html": source,
	}

	var buf bytes.Buffer
	err := PrintTextPlain(&buf, diagnostics, sources)
	if err != nil {
		t.Fatalf("PrintTextPlain failed: %v", err)
	}

	output := buf.String()

	idx1 := strings.Index(output, "Rule1")
	idx3 := strings.Index(output, "Rule3")
	idx2 := strings.Index(output, "Rule2")

	if idx1 > idx3 {
		t.Errorf("Rule1 should come before Rule3, got:\n%s", output)
	}
	if idx3 > idx2 {
		t.Errorf("Rule3 should come before Rule2, got:\n%s", output)
	}
}

func TestPrintTextPlain_MultiLineSpan(t *testing.T) {
	source := []byte("line0\n{% if x %}\nline2\n{% endif %}\nline4\n")
	diagnostics := []diag.Diagnostic{
		{
			File:     "home.html",
			Span:     diag.Span{Start: 6, End: 35}, // spans lines 1-3
			Code:     "MultiLine",
			Message:  "Spans multiple lines",
			Severity: diag.SeverityWarning,
		},
	}
	sources := map[string][]byte{"home.html": source}

	var buf bytes.Buffer
	err := PrintTextPlain(&buf, diagnostics, sources)
	if err != nil {
		t.Fatalf("PrintTextPlain failed: %v", err)
	}

	output := buf.String()

	lines := strings.Split(output, "\n")
	markedCount := 0
	for _, line := range lines {
		if strings.Contains(line, ">>>") {
			markedCount++
		}
	}

	if markedCount != 3 {
		t.Errorf("Expected 3 marked lines, got %d:\n%s", markedCount, output)
	}
}

func TestPrintTextPlain_Padding(t *testing.T) {
	source := []byte("line1\nline2\nline3\nline4\nline5\nline6\nline7\nline8\n")
	diagnostics := []diag.Diagnostic{
		{
			File:     "home.html",
			Span:     diag.Span{Start: 24, End: 29}, // line5 (0-based line 4)
			Code:     "Test",
			Message:  "Middle line",
			Severity: diag.SeverityWarning,
		},
	}
	sources := map[string][]byte{"home.html": source}

	var buf bytes.Buffer
	err := PrintTextPlain(&buf, diagnostics, sources)
	if err != nil {
		t.Fatalf("PrintTextPlain failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "line3") || !strings.Contains(output, "line7") {
		t.Errorf("Missing context padding, got:\n%s", output)
	}
}

func TestNewTextReporter_Options(t *testing.T) {
	colorOn := true
	colorOff := false

	tests := []struct {
		name string
		opts TextOptions
	}{
		{"default", DefaultTextOptions()},
		{"color on", TextOptions{Color: &colorOn, ShowSource: true}},
		{"color off", TextOptions{Color: &colorOff, ShowSource: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewTextReporter(tt.opts)
			if r == nil {
				t.Fatal("NewTextReporter returned nil")
			}
		})
	}
}

func TestTextReporter_Print(t *testing.T) {
	source := []byte("{% extends 'base.html' %}\n{% trans 'hi' %}\n")
	diagnostics := []diag.Diagnostic{
		{
			File:     "home.html",
			Span:     diag.Span{Start: 0, End: 8},
			Code:     "TestRule",
			Message:  "Test message",
			Severity: diag.SeverityError,
		},
	}
	sources := map[string][]byte{"home.html": source}

	r := NewTextReporter(DefaultTextOptions())
	var buf bytes.Buffer
	err := r.Print(&buf, diagnostics, sources)
	if err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "TestRule") {
		t.Errorf("Missing rule code in output:\n%s", output)
	}
}
