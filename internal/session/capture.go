package session

import (
	"context"
	"errors"

	"github.com/jh3/tabsnap/internal/host"
)

// ErrNothingToSave is returned by Capture when no open tab is backed by a file.
var ErrNothingToSave = errors.New("no open file tabs to save")

// CursorSource supplies the last known caret of a document.
type CursorSource interface {
	Get(uri string) (host.Position, bool)
}

// Capture snapshots the workbench's open file tabs. Group and tab indices
// are positions in the host's enumeration, so they may skip values where
// non-file tabs were dropped.
func Capture(ctx context.Context, wb host.Workbench, cursors CursorSource) (Document, error) {
	groups, err := wb.Groups(ctx)
	if err != nil {
		return Document{}, err
	}

	doc := Document{Version: CurrentVersion}
	for gi, g := range groups {
		for ti, tab := range g.Tabs {
			uri, ok := tab.Input.FileURI()
			if !ok {
				continue
			}
			t := Tab{
				URI:            uri,
				GroupIndex:     gi,
				TabIndex:       ti,
				ViewColumn:     g.ViewColumn,
				IsGroupActive:  tab.Active,
				IsGlobalActive: tab.Active && g.Active,
			}
			if pos, ok := cursors.Get(uri); ok {
				t.Cursor = &Cursor{Line: pos.Line, Character: pos.Character}
			}
			doc.Tabs = append(doc.Tabs, t)
		}
	}

	if len(doc.Tabs) == 0 {
		return Document{}, ErrNothingToSave
	}
	return doc, nil
}
