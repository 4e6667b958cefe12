package db

import (
	"path/filepath"
	"sync"
)

// File is one of the database's exactly two input kinds (§4.1 invariant).
// Its identity is the canonical path; no content lives on it — content is
// retrieved through the virtual-filesystem contract (§6.4) by the parse
// query, keyed by path and guarded by this revision so the parse query is
// invalidated exactly when bytes might have changed.
type File struct {
	path     string
	revision *Cell[uint64]
}

// Path returns the File's canonical path.
func (f *File) Path() string { return f.path }

// Revision reads the current revision, recording a dependency if qc is
// non-nil. Tracked queries that read file content call this (indirectly,
// via the parse query) rather than touching the filesystem themselves.
func (f *File) Revision(qc *QueryCtx) uint64 { return f.revision.Get(qc) }

// FileTable owns the File registry: get-or-create by canonical path, and
// the revision-bump operation the document-sync collaborator drives.
type FileTable struct {
	db *Database

	mu    sync.Mutex
	files map[string]*File
}

func newFileTable(d *Database) *FileTable {
	return &FileTable{db: d, files: make(map[string]*File)}
}

// canonicalizePath normalizes a path for use as a File identity. Falls back
// to filepath.Clean if the absolute form cannot be resolved (e.g. an
// in-memory-only URI scheme some editors use for unsaved scratch buffers).
func canonicalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}

// GetFile returns the File for path, creating it at revision 0 on first use.
func (t *FileTable) GetFile(path string) *File {
	canon := canonicalizePath(path)
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.files[canon]; ok {
		return f
	}
	f := &File{path: canon, revision: NewCell[uint64](t.db, 0, nil)}
	t.files[canon] = f
	return f
}

// BumpRevision advances the revision counter for path's File, creating it
// first if it doesn't exist yet (a file appearing for the first time is
// itself a change worth observing).
func (t *FileTable) BumpRevision(path string) {
	f := t.GetFile(path)
	f.revision.Set(f.revision.Get(nil) + 1)
}

// Forget removes a File's bookkeeping entirely (the document-sync
// collaborator calls this on didClose for an unsaved buffer that never
// existed on disk, so it stops being enumerable).
func (t *FileTable) Forget(path string) {
	canon := canonicalizePath(path)
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.files, canon)
}
