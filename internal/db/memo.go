package db

import (
	"reflect"
	"sync"
)

// ComputeFunc is the body of one tracked query. It must only read from qc
// (which forwards to Cell.Get and other Memo.Get calls) — any other source
// of information is, per §4.1, a bug.
type ComputeFunc[K comparable, V any] func(qc *QueryCtx, key K) (V, error)

// entry is one memoized (key, value) pair plus the dependency snapshot
// that produced it.
type entry[V any] struct {
	value     V
	changedAt Revision
	deps      []depRecord
}

// Memo is a tracked query: a named, memoizing, dependency-tracking cache
// from K to V. Each distinct kind of tracked query in the core (parse_file,
// compute_tag_specs, extract_module_rules, ...) constructs exactly one
// Memo and calls Get through it.
type Memo[K comparable, V any] struct {
	name    string
	db      *Database
	compute ComputeFunc[K, V]

	mu      sync.Mutex
	entries map[K]*entry[V]
}

// NewMemo creates a tracked query named name, backed by compute.
func NewMemo[K comparable, V any](d *Database, name string, compute ComputeFunc[K, V]) *Memo[K, V] {
	return &Memo[K, V]{
		name:    name,
		db:      d,
		compute: compute,
		entries: make(map[K]*entry[V]),
	}
}

// Get returns the memoized value for key, recomputing if stale. If parentQC
// is non-nil (i.e. this call happens inside another tracked query's
// compute function), a dependency on (this Memo, key) is recorded into
// parentQC so the caller is itself invalidated when this entry changes.
func (m *Memo[K, V]) Get(parentQC *QueryCtx, key K) (V, error) {
	value, changedAt, err := m.ensure(key)
	if parentQC != nil && err == nil {
		parentQC.record(memoDep[K, V]{m: m, key: key}, changedAt)
	}
	return value, err
}

// Peek returns the last-memoized value for key without verifying or
// recomputing it, and reports whether an entry exists at all. Intended for
// diagnostics/introspection (e.g. a "what did we last see" debug command),
// never for use inside a tracked query's compute function.
func (m *Memo[K, V]) Peek(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Evict removes a memoized entry outright. Used when an input (e.g. a
// workspace Python file) is deleted and its slice of a downstream table
// (e.g. tag-spec assembly) must stop contributing without waiting for a
// dependency-revision mismatch to be observed.
func (m *Memo[K, V]) Evict(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memo[K, V]) ensure(key K) (V, Revision, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	m.mu.Unlock()

	if ok {
		fresh, verr := m.verify(e)
		if verr != nil {
			var zero V
			return zero, 0, verr
		}
		if fresh {
			return e.value, e.changedAt, nil
		}
	}
	return m.recompute(key, e)
}

// verify walks the entry's recorded dependencies and reports whether every
// one is still at the changed-at revision recorded when the entry was
// built. A single drifted dependency marks the entry stale.
func (m *Memo[K, V]) verify(e *entry[V]) (bool, error) {
	for _, dr := range e.deps {
		at, err := dr.d.refreshChangedAt(m.db)
		if err != nil {
			return false, err
		}
		if at != dr.at {
			return false, nil
		}
	}
	return true, nil
}

func (m *Memo[K, V]) recompute(key K, old *entry[V]) (V, Revision, error) {
	var zero V
	if err := m.db.checkCancelled(); err != nil {
		return zero, 0, err
	}

	m.db.hooks.fire(Event{Kind: EventWillExecute, Ingredient: m.name, Key: key})

	qc := &QueryCtx{db: m.db}
	value, err := m.compute(qc, key)
	if err != nil {
		return zero, 0, err
	}

	changedAt := m.db.clock.current()
	if old != nil {
		if valuesEqual(old.value, value) {
			changedAt = old.changedAt
			m.db.hooks.fire(Event{Kind: EventEarlyCutoff, Ingredient: m.name, Key: key})
		} else {
			m.db.hooks.fire(Event{Kind: EventDidDiscardStale, Ingredient: m.name, Key: key})
		}
	}

	newEntry := &entry[V]{value: value, changedAt: changedAt, deps: qc.reads}
	m.mu.Lock()
	m.entries[key] = newEntry
	m.mu.Unlock()

	return value, changedAt, nil
}

// memoDep lets a Memo entry appear as a dependency of another Memo entry.
type memoDep[K comparable, V any] struct {
	m   *Memo[K, V]
	key K
}

func (md memoDep[K, V]) refreshChangedAt(*Database) (Revision, error) {
	_, at, err := md.m.ensure(md.key)
	return at, err
}

// valuesEqual implements the early-cutoff value comparison. reflect.DeepEqual
// is adequate here: memoized values in this database are plain data
// (slices/maps/structs of comparable leaves), never channels or funcs.
func valuesEqual[V any](a, b V) bool {
	return reflect.DeepEqual(a, b)
}
