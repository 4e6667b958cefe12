package db

// Project is the database's second and last input kind. Unlike File, a
// Project is a singleton whose lifetime spans the workspace: it is never
// replaced, only its fields are updated via compare-then-set (§3.1
// invariant). Each field is its own Cell so that, e.g., changing
// DjangoSettingsModule does not invalidate a query that only read
// RootPath.
//
// Fields whose domain type would force internal/db to import the
// inspector/extraction packages (and create an import cycle, since those
// packages depend on db for tracked-query plumbing) are typed `any` here
// and given a concrete shape by their owning package — InspectorInventory
// holds an *inspector.Inventory, ExtractedExternalRules holds a
// map[string]*extraction.Result. This mirrors the base spec's own
// layering: db defines the invalidation mechanics, not the domain payload.
type Project struct {
	RootPath                    *Cell[string]
	InterpreterSpec             *Cell[string]
	DjangoSettingsModule        *Cell[string]
	ExtraPythonPath             *Cell[[]string]
	InspectorInventory          *Cell[any] // *inspector.Inventory | nil
	DiagnosticSeverityOverrides *Cell[map[string]string]
	ExtractedExternalRules      *Cell[map[string]any] // module path -> *extraction.Result
	PythonSysPath               *Cell[[]string]
}

func newProject(d *Database) *Project {
	return &Project{
		RootPath:                    NewCell(d, "", nil),
		InterpreterSpec:             NewCell(d, "", nil),
		DjangoSettingsModule:        NewCell(d, "", nil),
		ExtraPythonPath:             NewCell[[]string](d, nil, nil),
		InspectorInventory:          NewCell[any](d, nil, nil),
		DiagnosticSeverityOverrides: NewCell[map[string]string](d, nil, nil),
		ExtractedExternalRules:      NewCell[map[string]any](d, nil, nil),
		PythonSysPath:               NewCell[[]string](d, nil, nil),
	}
}

// InventoryHealthy reports whether a live inspector inventory is present,
// i.e. whether the database is NOT in the degraded mode described in §4.6
// and §6.2 ("Suppressed when inspector inventory absent").
func (p *Project) InventoryHealthy(qc *QueryCtx) bool {
	return p.InspectorInventory.Get(qc) != nil
}
