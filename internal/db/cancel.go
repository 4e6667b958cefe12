package db

import (
	"errors"
	"sync/atomic"
)

// ErrCancelled is returned by a tracked query when it observes a poisoned
// revision via QueryCtx.Cancelled/CheckCancelled (§5 "Cancellation
// semantics": a cancellation request poisons the revision; unwinding is
// clean, with no persisted partial state).
var ErrCancelled = errors.New("db: query cancelled")

// cancelToken is poisoned for the lifetime of one revision. Requesting
// cancellation only ever poisons the CURRENT token; starting a new
// revision (any input write) installs a fresh, unpoisoned token, which is
// how "subsequent queries re-start" after a cancellation (§5).
type cancelToken struct {
	poisoned atomic.Bool
}

func (t *cancelToken) cancel() { t.poisoned.Store(true) }
func (t *cancelToken) isCancelled() bool {
	if t == nil {
		return false
	}
	return t.poisoned.Load()
}
