// Package loadscope turns a node list's ordered {% load %} statements into
// a position-indexed availability oracle (§4.6). It never consults the
// incremental database directly — callers drive it from a parsed node
// list and a symbol resolver derived from the runtime inventory.
package loadscope

import (
	"sort"

	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/template"
)

// StatementKind discriminates the two {% load %} forms (§3.7).
type StatementKind int

const (
	KindFull StatementKind = iota
	KindSelective
)

// Statement is one parsed {% load %} tag.
//
//   - Full:      {% load X Y %}            -> Libraries = {X, Y}
//   - Selective: {% load sym1 sym2 from L %} -> Symbols = {sym1, sym2}, Library = L
type Statement struct {
	Span      diag.Span
	Kind      StatementKind
	Libraries []string
	Symbols   []string
	Library   string
}

// ParseStatements walks nodes once and extracts every {% load %} tag in
// document order (span ascending, which parse already guarantees).
func ParseStatements(nodes []template.Node) []Statement {
	var stmts []Statement
	for _, n := range nodes {
		if n.Kind != template.KindTag || n.Name != "load" {
			continue
		}
		stmts = append(stmts, parseOne(n))
	}
	return stmts
}

func parseOne(n template.Node) Statement {
	// "{% load sym1 sym2 from LIB %}": the second-to-last bit is "from"
	// and at least one bit (the tag name "load") precedes it.
	if len(n.Bits) >= 3 && n.Bits[len(n.Bits)-2] == "from" {
		return Statement{
			Span:    n.Span,
			Kind:    KindSelective,
			Symbols: append([]string(nil), n.Bits[:len(n.Bits)-2]...),
			Library: n.Bits[len(n.Bits)-1],
		}
	}
	return Statement{
		Span:      n.Span,
		Kind:      KindFull,
		Libraries: append([]string(nil), n.Bits...),
	}
}

// Answer is the three-state result of asking whether a tag/filter name is
// usable at a given byte position (§4.6).
type Answer int

const (
	// Available: a builtin, or some library loaded at the query position
	// defines the name.
	Available Answer = iota
	// RequiresLoad: exactly one known library defines the name and it is
	// not yet loaded at the query position.
	RequiresLoad
	// Ambiguous: the name is defined by more than one library and none
	// is loaded at the query position.
	Ambiguous
)

// Oracle answers availability queries for tag/filter names given the
// document's {% load %} statements and the inventory's candidate tables
// (§3.8). A nil Oracle (or one built with degraded=true) always answers
// Available — this is the documented degraded mode for a missing
// inspector inventory (§4.6, §6.2).
type Oracle struct {
	statements []Statement
	degraded   bool

	// candidates maps a tag/filter name to the set of load_names that
	// define it as a library symbol (§3.8). Builtin names need no entry
	// here; callers check builtin membership separately via isBuiltin.
	candidates map[string][]string
	isBuiltin  func(name string) bool
}

// NewOracle builds an Oracle over stmts. candidates maps name -> sorted,
// deduplicated list of defining load_names (possibly empty). isBuiltin
// reports whether name is always available regardless of load state. If
// degraded is true the oracle answers Available unconditionally.
func NewOracle(stmts []Statement, candidates map[string][]string, isBuiltin func(string) bool, degraded bool) *Oracle {
	if isBuiltin == nil {
		isBuiltin = func(string) bool { return false }
	}
	return &Oracle{
		statements: stmts,
		degraded:   degraded,
		candidates: candidates,
		isBuiltin:  isBuiltin,
	}
}

// state is the fold state at some byte position: which libraries are
// fully loaded, and which symbols are selectively loaded per library not
// (yet) fully loaded.
type state struct {
	fullyLoaded map[string]bool
	selective   map[string]map[string]bool // library -> symbol set
}

func newState() *state {
	return &state{
		fullyLoaded: make(map[string]bool),
		selective:   make(map[string]map[string]bool),
	}
}

func (s *state) applyFull(libs []string) {
	for _, lib := range libs {
		s.fullyLoaded[lib] = true
		delete(s.selective, lib)
	}
}

func (s *state) applySelective(syms []string, lib string) {
	if s.fullyLoaded[lib] {
		return
	}
	set, ok := s.selective[lib]
	if !ok {
		set = make(map[string]bool)
		s.selective[lib] = set
	}
	for _, sym := range syms {
		set[sym] = true
	}
}

// foldAt folds every statement whose span ends at or before pos into a
// state snapshot.
func (o *Oracle) foldAt(pos int) *state {
	s := newState()
	for _, stmt := range o.statements {
		if stmt.Span.End > pos {
			continue
		}
		switch stmt.Kind {
		case KindFull:
			s.applyFull(stmt.Libraries)
		case KindSelective:
			s.applySelective(stmt.Symbols, stmt.Library)
		}
	}
	return s
}

// availableAt reports whether symbol sym from library lib is available at
// pos, per the fully_loaded/selective fold (§4.6).
func (s *state) availableAt(lib, sym string) bool {
	if s.fullyLoaded[lib] {
		return true
	}
	return s.selective[lib] != nil && s.selective[lib][sym]
}

// Resolve answers the three-state query for name at byte position pos.
func (o *Oracle) Resolve(name string, pos int) Answer {
	if o == nil || o.degraded {
		return Available
	}
	if o.isBuiltin(name) {
		return Available
	}

	libs := dedupSorted(o.candidates[name])
	if len(libs) == 0 {
		// Unknown entirely: callers distinguish "no candidates at all"
		// (emit UnknownTag/UnknownFilter) from these three states
		// themselves, by checking candidate-table membership first.
		return RequiresLoad
	}

	s := o.foldAt(pos)
	for _, lib := range libs {
		if s.availableAt(lib, name) {
			return Available
		}
	}
	if len(libs) == 1 {
		return RequiresLoad
	}
	return Ambiguous
}

// IsKnown reports whether name is a builtin or defined by at least one
// library candidate, regardless of whether any defining library is loaded
// at any particular position. Callers use this to distinguish "entirely
// unknown name" (their own Unknown* diagnostic) from the RequiresLoad
// answer Resolve gives for a genuinely unrecognized name (§4.6, §4.10).
func (o *Oracle) IsKnown(name string) bool {
	if o == nil || o.degraded {
		return true
	}
	if o.isBuiltin(name) {
		return true
	}
	return len(o.candidates[name]) > 0
}

// Candidates returns the sorted, deduplicated list of libraries known to
// define name, for building a RequiresLoad/Ambiguous diagnostic message.
func (o *Oracle) Candidates(name string) []string {
	if o == nil {
		return nil
	}
	return dedupSorted(o.candidates[name])
}

func dedupSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
