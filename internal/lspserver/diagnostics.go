package lspserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/exp/jsonrpc2"

	"github.com/djls/djls/internal/config"
	"github.com/djls/djls/internal/diag"
	protocol "github.com/djls/djls/internal/lsp/protocol"
	"github.com/djls/djls/internal/sourcemap"
)

// publishDiagnostics lints a document and publishes diagnostics to the client.
func (s *Server) publishDiagnostics(ctx context.Context, conn *jsonrpc2.Connection, doc *Document) {
	docURI := doc.URI
	content := doc.Content

	diags := s.lintContent(docURI, []byte(content))
	s.lintCache.record(docURI)

	sm := sourcemap.New([]byte(content))
	version := doc.Version

	if err := lspNotify(ctx, conn, string(protocol.MethodTextDocumentPublishDiagnostics), &protocol.PublishDiagnosticsParams{
		Uri:         protocol.DocumentUri(docURI),
		Version:     &version,
		Diagnostics: convertDiagnostics(diags, sm),
	}); err != nil {
		s.logger.Warn("lsp: failed to publish diagnostics", zap.String("uri", docURI), zap.Error(err))
	}
}

// clearDiagnostics sends an empty diagnostics array to clear issues for a URI.
func (s *Server) clearDiagnostics(ctx context.Context, conn *jsonrpc2.Connection, docURI string, version *int32) {
	if err := lspNotify(ctx, conn, string(protocol.MethodTextDocumentPublishDiagnostics), &protocol.PublishDiagnosticsParams{
		Uri:         protocol.DocumentUri(docURI),
		Version:     version,
		Diagnostics: []*protocol.Diagnostic{},
	}); err != nil {
		s.logger.Warn("lsp: failed to clear diagnostics", zap.String("uri", docURI), zap.Error(err))
	}
}

// contentHash returns a truncated SHA-256 hex digest of content (16 hex
// chars). Nothing in the repository calls it.
func contentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8])
}

// lintContent resolves this file's configuration (editor overrides merged
// per §6.3's precedence axis) and runs it through the core pipeline using
// the server's current project.
func (s *Server) lintContent(docURI string, content []byte) []diag.Diagnostic {
	filePath := uriToPath(docURI)

	overrides, preference := s.overridesForFile(filePath)
	cfg, err := config.LoadWithOverrides(filePath, overrides, preference)
	if err != nil {
		s.logger.Warn("lsp: config load error", zap.String("path", filePath), zap.Error(err))
		cfg = config.Default()
	}

	return runPipeline(filePath, content, s.currentProject(), cfg)
}

// convertDiagnostics converts core diagnostics to LSP diagnostics, using sm
// to turn each byte-offset Span into a line/character Range.
func convertDiagnostics(diags []diag.Diagnostic, sm *sourcemap.SourceMap) []*protocol.Diagnostic {
	out := make([]*protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		sev := severityToLSP(d.Severity)
		code := string(d.Code)
		out = append(out, &protocol.Diagnostic{
			Range:    diagnosticRange(d, sm),
			Severity: &sev,
			Source:   ptrTo(serverName),
			Code:     &protocol.IntegerOrString{String: &code},
			Message:  d.Message,
		})
	}
	return out
}

// diagnosticRange converts a diag.Span's byte offsets into an LSP Range.
func diagnosticRange(d diag.Diagnostic, sm *sourcemap.SourceMap) protocol.Range {
	startLine, startCol := sm.Position(d.Span.Start)
	endLine, endCol := sm.Position(d.Span.End)
	return protocol.Range{
		Start: protocol.Position{Line: uint32(startLine), Character: uint32(startCol)},
		End:   protocol.Position{Line: uint32(endLine), Character: uint32(endCol)},
	}
}

// severityToLSP converts a diag.Severity to an LSP DiagnosticSeverity.
// SeverityOff is never passed in: the pipeline (applySeverity) drops
// off-severity diagnostics before they reach here.
func severityToLSP(s diag.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diag.SeverityError:
		return protocol.DiagnosticSeverityError
	case diag.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case diag.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	case diag.SeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

// uriToPath converts a file:// URI to a local file path.
func uriToPath(docURI string) string {
	parsed, err := url.Parse(docURI)
	if err != nil {
		return strings.TrimPrefix(docURI, "file://")
	}
	path := parsed.Path
	// On Windows, file URIs look like file:///C:/path, so Path is /C:/path.
	if runtime.GOOS == "windows" && len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}
