package db

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Database is the root handle every tracked query and input setter goes
// through. One Database exists per workspace/editor session; the LSP
// server and CLI both construct exactly one and serialize writes to it
// through a mutex-protected handle per §5.
type Database struct {
	clock     clock
	hooks     hooks
	logger    *zap.Logger
	cellSeq   atomic.Uint64
	cancelPtr atomic.Pointer[cancelToken]

	// Files and Project are the database's exactly-two input kinds (§4.1).
	Files   *FileTable
	Project *Project
}

// New creates an empty Database at revision 0 with no cancellation poison,
// an empty File registry, and a Project with zero-valued fields. logger
// receives Debug-level query-execution tracing (§A.1); a nil logger
// disables tracing rather than panicking, so tests that don't care about
// logging can pass nil.
func New(logger *zap.Logger) *Database {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Database{logger: logger}
	d.cancelPtr.Store(&cancelToken{})
	d.Files = newFileTable(d)
	d.Project = newProject(d)
	d.hooks.subscribe(d.logEvent)
	return d
}

// logEvent is the database's own debug-tracing hook (§2's "Incremental
// Database" row: memoization, invalidation, dependency tracking are the
// things worth tracing). Registered first, so it always observes events
// before any test- or caller-installed hook.
func (d *Database) logEvent(ev Event) {
	switch ev.Kind {
	case EventWillExecute:
		d.logger.Debug("db: query executing", zap.String("ingredient", ev.Ingredient), zap.Any("key", ev.Key))
	case EventDidDiscardStale:
		d.logger.Debug("db: query result changed", zap.String("ingredient", ev.Ingredient), zap.Any("key", ev.Key))
	case EventEarlyCutoff:
		d.logger.Debug("db: query result unchanged, early cutoff", zap.String("ingredient", ev.Ingredient), zap.Any("key", ev.Key))
	}
}

// Subscribe registers a hook that is called for every EventKind the
// database fires. Intended for tests (incrementality assertions) and for
// debug logging; see internal/db's package doc.
func (d *Database) Subscribe(fn Hook) { d.hooks.subscribe(fn) }

// Revision returns the database's current logical clock value.
func (d *Database) Revision() Revision { return d.clock.current() }

// Cancel poisons the current revision. Any tracked query that checks
// QueryCtx.CheckCancelled after this call observes ErrCancelled and must
// unwind without persisting partial state (§5). A subsequent input write
// installs a fresh token, so later queries run normally again.
func (d *Database) Cancel() {
	d.cancelPtr.Load().cancel()
}

func (d *Database) cancelled() bool {
	return d.cancelPtr.Load().isCancelled()
}

func (d *Database) checkCancelled() error {
	if d.cancelled() {
		return ErrCancelled
	}
	return nil
}

// BumpFileRevisionByPath advances the named File's revision, creating it
// first if necessary. Satisfies vfs.RevisionBumper so the disk watcher can
// drive invalidation without importing internal/db's full surface.
func (d *Database) BumpFileRevisionByPath(path string) {
	d.Files.BumpRevision(path)
}

// nextCellID hands out a fresh identity for a newly constructed input cell.
func (d *Database) nextCellID() cellID {
	return cellID(d.cellSeq.Add(1))
}

// onWrite is called by every input cell's Set after a value actually
// changes: it advances the clock (already done by the caller holding the
// new revision) and resets cancellation, matching "a cancellation request
// poisons the revision... subsequent queries re-start" (§5) — a fresh
// revision is never born already poisoned.
func (d *Database) onWrite() {
	d.cancelPtr.Store(&cancelToken{})
}
