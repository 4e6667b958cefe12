// Package db implements the demand-driven, memoizing incremental database
// described in spec §4.1: two input kinds (File, Project), tracked queries
// that read only from inputs or other tracked queries, compare-then-set as
// the sole invalidation mechanism, and an event hook tests use to observe
// which queries actually re-ran.
//
// The design follows the Salsa family of incremental-computation engines
// (used by rust-analyzer and ruff): every memoized value records both a
// "changed at" revision (bumped only when the value itself differs from
// the previous one — the early-cutoff that makes re-running a query that
// happens to produce the same output a no-op for its dependents) and the
// set of dependencies it read while computing. No ready-made Go library in
// this codebase's dependency surface provides this; see DESIGN.md for why
// it is hand-written against the standard library.
package db

import "sync/atomic"

// Revision is a monotonically increasing logical clock. Every input write
// (a File revision bump, a Project field compare-then-set) advances the
// database's current revision by one.
type Revision uint64

// clock is an atomic monotonic revision counter shared by one Database.
type clock struct {
	v atomic.Uint64
}

// current returns the latest revision without advancing it.
func (c *clock) current() Revision { return Revision(c.v.Load()) }

// advance bumps the clock and returns the new revision.
func (c *clock) advance() Revision { return Revision(c.v.Add(1)) }
