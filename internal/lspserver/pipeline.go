package lspserver

import (
	"github.com/djls/djls/internal/blocktree"
	"github.com/djls/djls/internal/config"
	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/exprvalidate"
	"github.com/djls/djls/internal/filterarity"
	"github.com/djls/djls/internal/loadscope"
	"github.com/djls/djls/internal/ruleeval"
	"github.com/djls/djls/internal/template"
)

// runPipeline drives every validator in the semantic pipeline (§2, §4)
// over one file's content and returns its diagnostics with severity
// overrides applied. It is the single place djls (both the LSP server and
// the CLI, see cmd/djls/cmd/lint.go) turns bytes into diagnostics; neither
// caller re-implements parse -> blocktree -> loadscope -> rule/expression/
// filter validation on its own.
// RunPipeline is runPipeline exported for cmd/djls/cmd, which drives the
// same validator sequence over files passed on the command line instead of
// documents opened in an editor session.
func RunPipeline(file string, content []byte, p *Project, cfg *config.Config) []diag.Diagnostic {
	return runPipeline(file, content, p, cfg)
}

func runPipeline(file string, content []byte, p *project, cfg *config.Config) []diag.Diagnostic {
	result := template.Parse(content)

	var diags []diag.Diagnostic
	for _, e := range result.Errors {
		diags = append(diags, diag.New(file, e.Span, diag.CodeParseError, e.Message))
	}

	specs := p.specs
	bt := blocktree.Build(file, result.Nodes, specs.Tags)
	diags = append(diags, bt.Diagnostics...)

	stmts := loadscope.ParseStatements(result.Nodes)
	oracle := p.oracle(stmts)

	diags = append(diags, loadscope.ValidateTags(file, result.Nodes, specs.Tags, oracle, bt.Opaque)...)
	diags = append(diags, ruleeval.Evaluate(file, result.Nodes, specs.Tags, bt.Opaque)...)
	diags = append(diags, filterarity.Validate(file, result.Nodes, oracle, specs.FilterArity, bt.Opaque)...)

	for i := range result.Nodes {
		n := &result.Nodes[i]
		if n.Kind != template.KindTag || (n.Name != "if" && n.Name != "elif") {
			continue
		}
		if bt.Opaque.Contains(n.Span.Start) {
			continue
		}
		diags = append(diags, exprvalidate.Validate(file, *n, content)...)
	}

	return applySeverity(diags, cfg)
}

// applySeverity resolves each diagnostic's configured severity (§6.3) and
// drops any whose resolved severity is "off" — suppression to off is
// defined as equivalent to never emitting the diagnostic (§6.2).
func applySeverity(diags []diag.Diagnostic, cfg *config.Config) []diag.Diagnostic {
	if cfg == nil {
		return diags
	}
	out := diags[:0]
	for _, d := range diags {
		sev := cfg.Diagnostics.Resolve(d.Code)
		if sev == diag.SeverityOff {
			continue
		}
		out = append(out, d.WithSeverity(sev))
	}
	return out
}
