package db

// QueryCtx is handed to every tracked query's compute function. It exists
// only for the duration of one (re)computation and exists to collect the
// dependencies that computation reads — it is never safe to retain beyond
// the compute call that received it.
type QueryCtx struct {
	db    *Database
	reads []depRecord
}

// DB returns the owning Database, for queries that need to call other
// tracked queries (passing this same QueryCtx through so their reads nest
// into this one's dependency list).
func (qc *QueryCtx) DB() *Database { return qc.db }

// Cancelled reports whether the current revision has been poisoned.
func (qc *QueryCtx) Cancelled() bool { return qc.db.cancelled() }

// CheckCancelled returns ErrCancelled if the current revision is poisoned.
// Long-running queries (full-workspace extraction, batch rule evaluation)
// should call this at well-defined points — per file, per batch — and
// unwind immediately without caching partial results (§5).
func (qc *QueryCtx) CheckCancelled() error { return qc.db.checkCancelled() }

// record appends a dependency this query's compute function read.
func (qc *QueryCtx) record(d dep, at Revision) {
	qc.reads = append(qc.reads, depRecord{d: d, at: at})
}

// dep is anything a memoized entry can depend on: an input Cell, or
// another Memo's entry. Both expose "what is your changed-at right now,
// recomputing first if necessary."
type dep interface {
	refreshChangedAt(d *Database) (Revision, error)
}

// depRecord snapshots a dependency's changed-at revision at the moment it
// was read, so a later verify pass can detect drift.
type depRecord struct {
	d  dep
	at Revision
}
