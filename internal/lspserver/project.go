package lspserver

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/djls/djls/internal/config"
	"github.com/djls/djls/internal/inspector"
	"github.com/djls/djls/internal/loadscope"
	"github.com/djls/djls/internal/tagspec"
)

// inspectorHandshakeTimeout bounds the one-time, best-effort attempt to
// reach a Python environment through the inspector bridge. A client that
// never answers (no Python on PATH, wrong venv) must not block
// initialize or the first lint.
const inspectorHandshakeTimeout = 3 * time.Second

type project = Project

// Project holds the per-workspace-root state needed to validate a
// document: the assembled tag/filter table and the load-scope inputs
// derived from a best-effort inspector handshake. Exported so cmd/djls/cmd
// can drive the same pipeline the server uses, one project per CLI
// invocation instead of per workspace root.
//
// djls does not yet re-extract workspace templatetags modules (§4.2's
// workspace extraction pass); specs is therefore always the compile-time
// baseline merged with nothing, which is a conservative, documented scope
// reduction rather than a silent omission.
type Project struct {
	root   string
	cfg    *config.Config
	specs  *tagspec.Result
	logger *zap.Logger

	bridge     *inspector.Bridge
	degraded   bool
	candidates map[string][]string
	isBuiltin  func(string) bool
}

// NewProject builds a project for root, attempting one inspector
// handshake to populate load-scope candidates from the real Django
// environment. On any failure it falls back to permanently degraded
// mode (§4.6: no inventory means every tag/filter answers Available).
// A nil logger disables logging rather than panicking.
func NewProject(root string, cfg *config.Config, logger *zap.Logger) *Project {
	return newProject(root, cfg, logger)
}

func newProject(root string, cfg *config.Config, logger *zap.Logger) *project {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &project{
		root:   root,
		cfg:    cfg,
		specs:  tagspec.Assemble(nil, nil),
		logger: logger,
	}

	command := pythonCommand(cfg)
	bridge := inspector.NewBridge(command, logger)

	ctx, cancel := context.WithTimeout(context.Background(), inspectorHandshakeTimeout)
	defer cancel()

	inv, err := bridge.Templatetags(ctx)
	if err != nil {
		logger.Warn("lsp: inspector handshake failed, running degraded", zap.String("root", root), zap.Error(err))
		_ = bridge.Close()
		p.degraded = true
		return p
	}

	p.bridge = bridge
	p.candidates, p.isBuiltin = candidatesFromInventory(inv)
	return p
}

// pythonCommand builds the inspector subprocess invocation from
// configuration (§6.3). VenvPath, when set, pins the interpreter to a
// project virtualenv instead of relying on PATH lookup.
//
// DjangoSettingsModule and PythonPath are not passed to the subprocess:
// inspector.Bridge never sets exec.Cmd.Env in its respawn path, and the
// command built here carries only the interpreter and "-m djls_inspector".
func pythonCommand(cfg *config.Config) []string {
	python := "python3"
	if cfg != nil && cfg.VenvPath != "" {
		python = filepath.Join(cfg.VenvPath, "bin", "python3")
	}
	return []string{python, "-m", "djls_inspector"}
}

// candidatesFromInventory turns an inspector.Inventory into the
// candidates/isBuiltin inputs loadscope.NewOracle expects, merging tags
// and filters into one name→library table since a single {% load %}
// statement brings both into scope together.
func candidatesFromInventory(inv *inspector.Inventory) (map[string][]string, func(string) bool) {
	candidates := map[string][]string{}
	builtin := map[string]bool{}

	record := func(e inspector.Entry) {
		switch {
		case e.Provenance.Builtin != nil:
			builtin[e.Name] = true
		case e.Provenance.Library != nil:
			candidates[e.Name] = append(candidates[e.Name], e.Provenance.Library.LoadName)
		}
	}
	for _, e := range inv.Tags {
		record(e)
	}
	for _, e := range inv.Filters {
		record(e)
	}

	return candidates, func(name string) bool { return builtin[name] }
}

// oracle builds a loadscope.Oracle for one document's {% load %}
// statements, using the project's inspector-derived candidates when
// available and falling back to degraded (suppress-everything) mode
// otherwise.
func (p *project) oracle(stmts []loadscope.Statement) *loadscope.Oracle {
	return loadscope.NewOracle(stmts, p.candidates, p.isBuiltin, p.degraded)
}

// close releases the project's inspector subprocess, if one was started.
func (p *project) close() {
	if p.bridge != nil {
		_ = p.bridge.Close()
	}
}

// Close releases the project's inspector subprocess, if one was started.
func (p *Project) Close() { p.close() }

// currentProject returns the server's active project, building a degraded
// fallback if initialize hasn't completed yet (defensive: the client is
// expected to always initialize before issuing any other request).
func (s *Server) currentProject() *project {
	s.projectMu.RLock()
	p := s.project
	s.projectMu.RUnlock()
	if p != nil {
		return p
	}
	return &project{root: s.root, cfg: config.Default(), specs: tagspec.Assemble(nil, nil), logger: s.logger, degraded: true}
}

// rebuildProject tears down the previous project (closing its inspector
// subprocess, if any) and builds a fresh one from the server's current root
// and configuration. Called at initialize and after a didChangeConfiguration
// that could change the interpreter a project's inspector handshake uses
// (e.g. a new venv-path).
func (s *Server) rebuildProject() {
	overrides, preference := s.overridesForFile(s.root)
	cfg, err := config.LoadWithOverrides(s.root, overrides, preference)
	if err != nil {
		s.logger.Warn("lsp: config load error", zap.String("root", s.root), zap.Error(err))
		cfg = config.Default()
	}

	next := newProject(s.root, cfg, s.logger)

	s.projectMu.Lock()
	prev := s.project
	s.project = next
	s.projectMu.Unlock()

	if prev != nil {
		prev.close()
	}
}
