package db

import (
	"reflect"
	"sync"
)

// cellID uniquely identifies an input cell for dependency bookkeeping.
type cellID uint64

// Cell is a single piece of input state: one File's revision counter, or
// one named field of the Project input. It is the only mutable state a
// tracked query may read (§4.1 invariant: "any read of external mutable
// state... is a bug").
//
// Set is compare-then-set: it only advances changedAt (and the database's
// global revision) when the new value differs from the current one, by
// reflect.DeepEqual unless an Eq override was supplied. This is the sole
// mechanism preventing spurious invalidation (§4.1).
type Cell[T any] struct {
	db *Database
	id cellID

	mu        sync.RWMutex
	value     T
	changedAt Revision

	eq func(a, b T) bool
}

// NewCell constructs a fresh input cell owned by d. eq may be nil, in
// which case reflect.DeepEqual is used for compare-then-set.
func NewCell[T any](d *Database, initial T, eq func(a, b T) bool) *Cell[T] {
	return newCell(d, initial, eq)
}

func newCell[T any](d *Database, initial T, eq func(a, b T) bool) *Cell[T] {
	if eq == nil {
		eq = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return &Cell[T]{
		db:        d,
		id:        d.nextCellID(),
		value:     initial,
		changedAt: d.clock.current(),
		eq:        eq,
	}
}

// Get returns the cell's current value and, if qc is non-nil, records a
// read dependency on this cell so the enclosing tracked query is
// invalidated when the cell next changes.
func (c *Cell[T]) Get(qc *QueryCtx) T {
	c.mu.RLock()
	v, at := c.value, c.changedAt
	c.mu.RUnlock()
	if qc != nil {
		qc.record(c, at)
	}
	return v
}

// Set applies compare-then-set: if newValue equals the current value, this
// is a no-op (no revision bump, no dependent invalidation — property #7).
// Otherwise the cell's value and changedAt advance to a freshly minted
// database revision, and returns true.
func (c *Cell[T]) Set(newValue T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eq(c.value, newValue) {
		return false
	}
	c.value = newValue
	c.changedAt = c.db.clock.advance()
	c.db.onWrite()
	return true
}

// refreshChangedAt satisfies the dep interface so a Cell can appear
// directly in another entry's dependency list (see memo.go).
func (c *Cell[T]) refreshChangedAt(*Database) (Revision, error) {
	return c.changedAtOf(), nil
}

// changedAtOf reports the cell's current changedAt without recording a
// dependency; used internally when verifying a memoized entry's deps.
func (c *Cell[T]) changedAtOf() Revision {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changedAt
}

// ID returns the cell's identity for use as a depRef.
func (c *Cell[T]) ID() cellID { return c.id }
