package db

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder collects fired events for assertions about which
// ingredients actually re-executed, mirroring the mock-collector style
// used elsewhere in this codebase for concurrency-sensitive tests.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) hook(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) countKind(k EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func (r *eventRecorder) countKindFor(k EventKind, ingredient string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == k && e.Ingredient == ingredient {
			n++
		}
	}
	return n
}

func TestCellCompareThenSetIsNoOpWhenUnchanged(t *testing.T) {
	t.Parallel()

	d := New(nil)
	c := NewCell(d, "initial", nil)

	before := d.Revision()
	changed := c.Set("initial")
	assert.False(t, changed, "Set with the current value must be a no-op")
	assert.Equal(t, before, d.Revision(), "revision must not advance on a no-op set")

	changed = c.Set("different")
	assert.True(t, changed)
	assert.NotEqual(t, before, d.Revision(), "revision must advance on a real change")
}

// TestEarlyCutoffSuppressesPropagation verifies property #7: recomputing a
// tracked query to the same value it already held does not tell dependents
// anything changed — its changedAt is held at the old value and an
// EarlyCutoff event fires instead of DidDiscardStale.
func TestEarlyCutoffSuppressesPropagation(t *testing.T) {
	t.Parallel()

	d := New(nil)
	rec := &eventRecorder{}
	d.Subscribe(rec.hook)

	src := NewCell(d, 1, nil)

	// parity always recomputes when src changes, but its *value* only
	// changes sometimes -- exercising early cutoff on the parity memo.
	parity := NewMemo(d, "parity", func(qc *QueryCtx, _ struct{}) (string, error) {
		v := src.Get(qc)
		if v%2 == 0 {
			return "even", nil
		}
		return "odd", nil
	})

	downstream := NewMemo(d, "downstream", func(qc *QueryCtx, _ struct{}) (string, error) {
		p, err := parity.Get(qc, struct{}{})
		if err != nil {
			return "", err
		}
		return "parity=" + p, nil
	})

	v, err := downstream.Get(nil, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "parity=odd", v)
	require.Equal(t, 1, rec.countKindFor(EventWillExecute, "downstream"))

	// 1 -> 3 changes src (still odd): parity recomputes to the identical
	// string value, so downstream must NOT re-execute.
	src.Set(3)

	v, err = downstream.Get(nil, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "parity=odd", v)
	assert.Equal(t, 2, rec.countKindFor(EventWillExecute, "parity"), "parity recomputes once more for the new src value")
	assert.Equal(t, 1, rec.countKindFor(EventWillExecute, "downstream"), "downstream must not re-execute: early cutoff")
	assert.Equal(t, 1, rec.countKindFor(EventEarlyCutoff, "parity"))

	// 3 -> 4 actually flips parity: downstream must now re-execute.
	src.Set(4)

	v, err = downstream.Get(nil, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "parity=even", v)
	assert.Equal(t, 3, rec.countKindFor(EventWillExecute, "parity"))
	assert.Equal(t, 2, rec.countKindFor(EventWillExecute, "downstream"))
}

// TestSelectiveInvalidationAcrossFiles verifies property #5: bumping one
// File's revision must not re-execute a tracked query keyed by a different
// File that never read the bumped one.
func TestSelectiveInvalidationAcrossFiles(t *testing.T) {
	t.Parallel()

	d := New(nil)
	rec := &eventRecorder{}
	d.Subscribe(rec.hook)

	lineCount := NewMemo(d, "line_count", func(qc *QueryCtx, path string) (int, error) {
		f := d.Files.GetFile(path)
		_ = f.Revision(qc)
		return len(path), nil
	})

	_, err := lineCount.Get(nil, "a.html")
	require.NoError(t, err)
	_, err = lineCount.Get(nil, "b.html")
	require.NoError(t, err)
	require.Equal(t, 2, rec.countKindFor(EventWillExecute, "line_count"), "first Get of each distinct path must compute")

	d.Files.BumpRevision("a.html")

	_, err = lineCount.Get(nil, "a.html")
	require.NoError(t, err)
	_, err = lineCount.Get(nil, "b.html")
	require.NoError(t, err)

	assert.Equal(t, 3, rec.countKindFor(EventWillExecute, "line_count"),
		"only a.html's entry should have recomputed; b.html's must stay cached")
}

func TestFileTableCanonicalizesAndForgets(t *testing.T) {
	t.Parallel()

	d := New(nil)
	f1 := d.Files.GetFile("./foo/../foo/bar.html")
	f2 := d.Files.GetFile("foo/bar.html")
	assert.Equal(t, f1.Path(), f2.Path(), "equivalent relative paths must canonicalize to the same File identity")

	d.Files.Forget(f1.Path())
	f3 := d.Files.GetFile(f1.Path())
	assert.Equal(t, uint64(0), f3.Revision(nil), "a forgotten file reappears at revision 0")
}

func TestProjectDegradedModeWithoutInventory(t *testing.T) {
	t.Parallel()

	d := New(nil)
	assert.False(t, d.Project.InventoryHealthy(nil))

	d.Project.InspectorInventory.Set(struct{ ok bool }{ok: true})
	assert.True(t, d.Project.InventoryHealthy(nil))
}

func TestCancelPoisonsThenClearsOnWrite(t *testing.T) {
	t.Parallel()

	d := New(nil)
	require.NoError(t, d.checkCancelled())

	d.Cancel()
	assert.ErrorIs(t, d.checkCancelled(), ErrCancelled)

	// Any real input write installs a fresh token.
	c := NewCell(d, 0, nil)
	c.Set(1)
	assert.NoError(t, d.checkCancelled(), "a genuine input change must clear a prior cancellation")
}

func TestMemoPeekAndEvict(t *testing.T) {
	t.Parallel()

	d := New(nil)
	m := NewMemo(d, "double", func(_ *QueryCtx, key int) (int, error) {
		return key * 2, nil
	})

	_, ok := m.Peek(5)
	assert.False(t, ok, "Peek before any Get must report no entry")

	v, err := m.Get(nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	peeked, ok := m.Peek(5)
	assert.True(t, ok)
	assert.Equal(t, 10, peeked)

	m.Evict(5)
	_, ok = m.Peek(5)
	assert.False(t, ok, "Evict must remove the memoized entry")
}
