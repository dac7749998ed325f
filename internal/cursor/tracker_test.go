package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jh3/tabsnap/internal/host"
)

func TestTracker_SelectionChanged(t *testing.T) {
	tr := New()

	_, ok := tr.Get("file:///a.go")
	assert.False(t, ok, "untouched documents have no entry")

	tr.SelectionChanged("file:///a.go", host.Position{Line: 3, Character: 7})
	tr.SelectionChanged("file:///a.go", host.Position{Line: 4, Character: 1})

	pos, ok := tr.Get("file:///a.go")
	require.True(t, ok)
	assert.Equal(t, host.Position{Line: 4, Character: 1}, pos)
}

func TestTracker_VisibleEditorsChanged(t *testing.T) {
	tr := New()
	tr.Set("file:///kept.go", host.Position{Line: 9})

	tr.VisibleEditorsChanged([]host.VisibleEditor{
		{URI: "file:///a.go", Cursor: host.Position{Line: 1, Character: 2}},
		{URI: "file:///b.go", Cursor: host.Position{Line: 5}},
	})

	assert.Equal(t, 3, tr.Len())
	pos, _ := tr.Get("file:///b.go")
	assert.Equal(t, 5, pos.Line)
	pos, _ = tr.Get("file:///kept.go")
	assert.Equal(t, 9, pos.Line)
}

func TestTracker_DocumentClosed(t *testing.T) {
	tr := New()
	tr.Set("file:///a.go", host.Position{Line: 1})
	tr.Set("file:///b.go", host.Position{Line: 2})

	tr.DocumentClosed("file:///a.go")

	_, ok := tr.Get("file:///a.go")
	assert.False(t, ok)
	_, ok = tr.Get("file:///b.go")
	assert.True(t, ok)
}

func TestTracker_Prune(t *testing.T) {
	tr := New()
	tr.Set("file:///a.go", host.Position{})
	tr.Set("file:///b.go", host.Position{})

	tr.Prune(map[string]bool{"file:///b.go": true})

	assert.Equal(t, 1, tr.Len())
	_, ok := tr.Get("file:///b.go")
	assert.True(t, ok)
}

func TestTracker_SaveAndOpen(t *testing.T) {
	dir := t.TempDir()

	tr := Open(dir)
	tr.Set("file:///a.go", host.Position{Line: 12, Character: 4})
	require.NoError(t, tr.Save())

	reopened := Open(dir)
	pos, ok := reopened.Get("file:///a.go")
	require.True(t, ok)
	assert.Equal(t, host.Position{Line: 12, Character: 4}, pos)
}

func TestTracker_SaveInMemory(t *testing.T) {
	assert.NoError(t, New().Save())
}
