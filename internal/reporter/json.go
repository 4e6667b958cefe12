package reporter

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/djls/djls/internal/diag"
)

// JSONOutput is the top-level structure for JSON output.
type JSONOutput struct {
	// Files contains results grouped by file.
	Files []FileResult `json:"files"`
	// Summary contains aggregate statistics.
	Summary Summary `json:"summary"`
	// FilesScanned is the total number of files scanned.
	FilesScanned int `json:"files_scanned"`
	// TagsKnown is the number of tags the assembled inventory recognized
	// across the run.
	TagsKnown int `json:"tags_known"`
}

// FileResult contains the diagnostics for a single file.
type FileResult struct {
	File        string            `json:"file"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

// Summary contains aggregate statistics about diagnostics.
type Summary struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
	Hints    int `json:"hints"`
	Files    int `json:"files"`
}

// JSONReporter formats diagnostics as JSON output.
type JSONReporter struct {
	writer io.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{writer: w}
}

// Report implements Reporter.
func (r *JSONReporter) Report(diagnostics []diag.Diagnostic, _ map[string][]byte, metadata ReportMetadata) error {
	// Group diagnostics by file (deterministic order).
	// Normalize paths to forward slashes for cross-platform consistency.
	byFile := make(map[string][]diag.Diagnostic)
	filesOrder := make([]string, 0)

	for _, d := range SortDiagnostics(diagnostics) {
		d.File = filepath.ToSlash(d.File)
		if _, exists := byFile[d.File]; !exists {
			filesOrder = append(filesOrder, d.File)
		}
		byFile[d.File] = append(byFile[d.File], d)
	}

	output := JSONOutput{
		Files:        make([]FileResult, 0, len(filesOrder)),
		Summary:      calculateSummary(diagnostics, len(filesOrder)),
		FilesScanned: metadata.FilesScanned,
		TagsKnown:    metadata.TagsKnown,
	}

	for _, file := range filesOrder {
		output.Files = append(output.Files, FileResult{
			File:        file,
			Diagnostics: byFile[file],
		})
	}

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// calculateSummary computes aggregate statistics from diagnostics.
func calculateSummary(diagnostics []diag.Diagnostic, fileCount int) Summary {
	summary := Summary{
		Total: len(diagnostics),
		Files: fileCount,
	}

	for _, d := range diagnostics {
		switch d.Severity {
		case diag.SeverityError:
			summary.Errors++
		case diag.SeverityWarning:
			summary.Warnings++
		case diag.SeverityInfo:
			summary.Info++
		case diag.SeverityHint:
			summary.Hints++
		case diag.SeverityOff:
			// never reached: off-severity diagnostics are filtered upstream
			// by config.DiagnosticsConfig.Resolve before reaching a reporter.
		}
	}

	return summary
}
