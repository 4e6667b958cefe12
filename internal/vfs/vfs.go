// Package vfs defines the filesystem contract the core trusts (§6.4), plus
// the two concrete collaborators a real deployment needs: a disk-backed
// implementation for on-disk templates, and an in-memory overlay for
// unsaved editor buffers. Neither implementation is a tracked query itself;
// within the core, an FS is read from inside internal/tagspec's
// extract_module_rules query.
package vfs

import "errors"

// ErrNotFound is returned by Read when path does not exist in the
// filesystem view.
var ErrNotFound = errors.New("vfs: not found")

// FS is the sole filesystem contract the core depends on.
type FS interface {
	// Read returns the bytes at path, or ErrNotFound.
	Read(path string) ([]byte, error)
}

// Overlay augments a base FS with in-memory buffers that take precedence.
// Nothing in the repository constructs one: internal/lspserver keeps open
// documents in its own DocumentStore and lints their content directly.
type Overlay struct {
	base    FS
	buffers map[string][]byte
}

// NewOverlay wraps base with an initially-empty buffer set.
func NewOverlay(base FS) *Overlay {
	return &Overlay{base: base, buffers: make(map[string][]byte)}
}

// Read returns the overlay buffer for path if present, else falls through
// to the base filesystem.
func (o *Overlay) Read(path string) ([]byte, error) {
	if b, ok := o.buffers[path]; ok {
		return b, nil
	}
	return o.base.Read(path)
}

// Set installs or replaces the in-memory buffer for path.
func (o *Overlay) Set(path string, content []byte) {
	o.buffers[path] = content
}

// Clear removes the in-memory buffer for path, reverting to base content.
func (o *Overlay) Clear(path string) {
	delete(o.buffers, path)
}

// Has reports whether path currently has an overlay buffer.
func (o *Overlay) Has(path string) bool {
	_, ok := o.buffers[path]
	return ok
}
