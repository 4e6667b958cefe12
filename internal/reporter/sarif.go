package reporter

import (
	"io"
	"path/filepath"
	"sort"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/sourcemap"
)

// Default SARIF tool information.
const (
	defaultToolName = "djls"
	defaultToolURI  = "https://github.com/djls/djls"
)

// SARIFReporter formats diagnostics as SARIF (Static Analysis Results
// Interchange Format). SARIF is a standard format for static analysis
// tools, widely supported by CI/CD systems including GitHub Code Scanning
// and Azure DevOps.
//
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/
type SARIFReporter struct {
	writer      io.Writer
	toolName    string
	toolVersion string
	toolURI     string
}

// NewSARIFReporter creates a new SARIF reporter.
func NewSARIFReporter(w io.Writer, toolName, toolVersion, toolURI string) *SARIFReporter {
	if toolName == "" {
		toolName = defaultToolName
	}
	if toolURI == "" {
		toolURI = defaultToolURI
	}
	return &SARIFReporter{
		writer:      w,
		toolName:    toolName,
		toolVersion: toolVersion,
		toolURI:     toolURI,
	}
}

// Report implements Reporter.
func (r *SARIFReporter) Report(diagnostics []diag.Diagnostic, sources map[string][]byte, _ ReportMetadata) error {
	// Create a new SARIF report (v2.1.0 for maximum compatibility)
	report := sarif.NewReport()

	// Create a run with tool information
	run := sarif.NewRunWithInformationURI(r.toolName, r.toolURI)
	if r.toolVersion != "" {
		run.Tool.Driver.WithVersion(r.toolVersion)
	}

	// Collect unique codes and files
	codeSet := make(map[string]struct{})
	fileSet := make(map[string]struct{})

	for _, d := range diagnostics {
		codeSet[string(d.Code)] = struct{}{}
		fileSet[filepath.ToSlash(d.File)] = struct{}{}
	}

	// Add rule definitions (one per diagnostic code, per §6.2's stable code table)
	codes := make([]string, 0, len(codeSet))
	for code := range codeSet {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		run.AddRule(code)
	}

	// Add artifacts (files)
	files := make([]string, 0, len(fileSet))
	for file := range fileSet {
		files = append(files, file)
	}
	sort.Strings(files)

	for _, file := range files {
		run.AddDistinctArtifact(file)
	}

	sourceMaps := make(map[string]*sourcemap.SourceMap, len(sources))

	// Add results
	for _, d := range diagnostics {
		filePath := filepath.ToSlash(d.File)

		result := sarif.NewRuleResult(string(d.Code)).
			WithMessage(sarif.NewTextMessage(d.Message)).
			WithLevel(severityToSARIFLevel(d.Severity))

		sm, ok := sourceMaps[d.File]
		if !ok {
			if content, found := sources[d.File]; found {
				sm = sourcemap.New(content)
			}
			sourceMaps[d.File] = sm
		}

		var physicalLocation *sarif.PhysicalLocation
		if sm != nil {
			startLine, startCol := sm.Position(d.Span.Start)
			endLine, endCol := sm.Position(d.Span.End)

			region := sarif.NewRegion().
				WithStartLine(startLine + 1).
				WithStartColumn(startCol + 1).
				WithEndLine(endLine + 1).
				WithEndColumn(endCol + 1)

			if snippet := sm.Snippet(startLine, endLine); snippet != "" {
				region.WithSnippet(sarif.NewArtifactContent().WithText(snippet))
			}

			physicalLocation = sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewSimpleArtifactLocation(filePath)).
				WithRegion(region)
		} else {
			physicalLocation = sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewSimpleArtifactLocation(filePath))
		}

		result.WithLocations([]*sarif.Location{
			sarif.NewLocationWithPhysicalLocation(physicalLocation),
		})

		run.AddResult(result)
	}

	report.AddRun(run)

	// Write with pretty formatting for readability
	return report.PrettyWrite(r.writer)
}

// SARIF severity levels.
const (
	sarifLevelError   = "error"
	sarifLevelWarning = "warning"
	sarifLevelNote    = "note"
)

// severityToSARIFLevel maps our Severity to SARIF levels.
// SARIF uses: "error", "warning", "note", "none".
func severityToSARIFLevel(s diag.Severity) string {
	switch s {
	case diag.SeverityError:
		return sarifLevelError
	case diag.SeverityWarning:
		return sarifLevelWarning
	case diag.SeverityInfo, diag.SeverityHint:
		return sarifLevelNote
	case diag.SeverityOff:
		// never reached: off-severity diagnostics are filtered upstream
		return sarifLevelNote
	default:
		return sarifLevelWarning
	}
}
