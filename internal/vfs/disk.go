package vfs

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DiskFS reads template bytes straight from disk. It is the default
// collaborator for CLI batch mode and for any file a running editor hasn't
// opened (the Overlay sits in front of it for open buffers).
type DiskFS struct{}

// NewDiskFS returns a stateless disk-backed FS.
func NewDiskFS() *DiskFS { return &DiskFS{} }

func (DiskFS) Read(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// RevisionBumper is the single operation the watcher needs from the
// incremental database: "this path's bytes may have changed, bump its File
// input's revision." It is satisfied by (*db.Database).BumpFileRevisionByPath.
type RevisionBumper interface {
	BumpFileRevisionByPath(path string)
}

// Watcher bridges out-of-band filesystem changes (e.g. `git checkout`, a
// formatter running outside the editor) into File revision bumps, so the
// incremental database doesn't miss changes that never flow through
// textDocument/didChange. Debounced the same way the reference watcher in
// this pack coalesces rapid writes into one validation pass.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	bumper  RevisionBumper
	logger  *zap.Logger
	debounc time.Duration
	pending map[string]time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher that will bump revisions on bumper for any
// changed path under the watched roots, debounced by 150ms.
func NewWatcher(bumper RevisionBumper, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher: fw,
		bumper:  bumper,
		logger:  logger,
		debounc: 150 * time.Millisecond,
		pending: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Add registers a directory (non-recursively; callers walk subdirectories
// themselves, matching fsnotify's own non-recursive contract) for watching.
func (w *Watcher) Add(dir string) error {
	return w.watcher.Add(dir)
}

// AddRecursive walks root and watches every directory beneath it.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort: skip unreadable subtrees
		}
		if d.IsDir() {
			if addErr := w.watcher.Add(path); addErr != nil {
				w.logger.Warn("vfs: failed to watch directory", zap.String("dir", path), zap.Error(addErr))
			}
		}
		return nil
	})
}

// Run starts the event loop. It blocks until Stop is called.
func (w *Watcher) Run() {
	defer close(w.doneCh)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending[ev.Name] = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("vfs: watch error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) flush() {
	now := time.Now()
	w.mu.Lock()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounc {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.bumper.BumpFileRevisionByPath(path)
	}
}

// Stop terminates the event loop and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}
