package tagspec

import (
	"github.com/djls/djls/internal/db"
	"github.com/djls/djls/internal/extraction"
	"github.com/djls/djls/internal/vfs"
)

// Queries hosts the tracked queries this package contributes to the
// incremental database (§4.5): extract_module_rules per workspace file,
// and compute_tag_specs over the whole project.
type Queries struct {
	extractModule *db.Memo[string, *extraction.Result]
	computeSpecs  *db.Memo[struct{}, *Result]
}

// NewQueries wires compute_tag_specs and extract_module_rules against d,
// reading source bytes through fs and discovering workspace modules from
// the Project's root_path/python_sys_path fields (§4.5 step 2).
func NewQueries(d *db.Database, fs vfs.FS) *Queries {
	q := &Queries{}

	q.extractModule = db.NewMemo(d, "extract_module_rules", func(qc *db.QueryCtx, path string) (*extraction.Result, error) {
		file := d.Files.GetFile(path)
		file.Revision(qc) // establish the dependency; content is re-read on every revision bump
		src, err := fs.Read(path)
		if err != nil {
			return nil, err
		}
		return extraction.Extract(src)
	})

	q.computeSpecs = db.NewMemo(d, "compute_tag_specs", func(qc *db.QueryCtx, _ struct{}) (*Result, error) {
		root := d.Project.RootPath.Get(qc)
		sysPath := d.Project.PythonSysPath.Get(qc)

		modules, err := DiscoverWorkspaceModules(root, sysPath)
		if err != nil {
			return nil, err
		}

		workspace := make([]*extraction.Result, 0, len(modules))
		for _, path := range modules {
			r, err := q.extractModule.Get(qc, path)
			if err != nil {
				continue // a single unparseable workspace module must not fail the whole table
			}
			workspace = append(workspace, r)
		}

		externalRaw := d.Project.ExtractedExternalRules.Get(qc)
		external := make([]*extraction.Result, 0, len(externalRaw))
		for _, v := range externalRaw {
			if r, ok := v.(*extraction.Result); ok {
				external = append(external, r)
			}
		}

		return Assemble(workspace, external), nil
	})

	return q
}

// Get returns the current tag-spec table, recomputing only the portions
// whose dependencies (workspace file revisions, Project fields) changed
// since the last call.
func (q *Queries) Get(qc *db.QueryCtx) (*Result, error) {
	return q.computeSpecs.Get(qc, struct{}{})
}

// ExtractModuleRules exposes the per-file extraction tracked query
// directly, for callers (e.g. a "show extraction for this file" CLI
// command) that want a single module's result without the full assembly.
func (q *Queries) ExtractModuleRules(qc *db.QueryCtx, path string) (*extraction.Result, error) {
	return q.extractModule.Get(qc, path)
}
