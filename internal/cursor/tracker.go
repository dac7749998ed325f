// Package cursor tracks the last known caret of each open document.
package cursor

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"

	"github.com/jh3/tabsnap/internal/host"
)

const stateFileName = "cursors.gob"

// Tracker maps document uri to its last observed caret. Documents never seen
// in a visible editor have no entry.
type Tracker struct {
	path      string
	positions map[string]host.Position
	mu        sync.RWMutex
}

// New creates an in-memory tracker.
func New() *Tracker {
	return &Tracker{positions: make(map[string]host.Position)}
}

// Open creates a tracker persisted under dir, loading any saved positions.
func Open(dir string) *Tracker {
	t := New()
	t.path = filepath.Join(dir, stateFileName)
	t.load()
	return t
}

func (t *Tracker) load() {
	f, err := os.Open(t.path)
	if err != nil {
		return
	}
	defer f.Close()

	var saved map[string]host.Position
	if gob.NewDecoder(f).Decode(&saved) != nil {
		return
	}
	for uri, pos := range saved {
		t.positions[uri] = pos
	}
}

// Save persists the positions. In-memory trackers have nothing to save.
func (t *Tracker) Save() error {
	if t.path == "" {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return err
	}
	f, err := os.Create(t.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(t.positions)
}

// Get returns the last known caret for uri.
func (t *Tracker) Get(uri string) (host.Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pos, ok := t.positions[uri]
	return pos, ok
}

// Set records the caret for uri.
func (t *Tracker) Set(uri string, pos host.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.positions[uri] = pos
}

// SelectionChanged handles a caret move in a visible editor.
func (t *Tracker) SelectionChanged(uri string, pos host.Position) {
	t.Set(uri, pos)
}

// VisibleEditorsChanged reseeds from every visible editor, which picks up
// selections made in panes that were not focused.
func (t *Tracker) VisibleEditorsChanged(editors []host.VisibleEditor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range editors {
		t.positions[e.URI] = e.Cursor
	}
}

// DocumentClosed drops the entry for a closed document.
func (t *Tracker) DocumentClosed(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.positions, uri)
}

// Prune removes entries for documents that are no longer open.
func (t *Tracker) Prune(open map[string]bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for uri := range t.positions {
		if !open[uri] {
			delete(t.positions, uri)
		}
	}
}

// Len reports how many documents have a recorded caret.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.positions)
}
