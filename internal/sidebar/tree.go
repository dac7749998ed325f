// Package sidebar builds the session tree shown in the sidebar view. The
// tree holds no state: every call reads the storage location and session
// files again.
package sidebar

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/jh3/tabsnap/internal/session"
	"github.com/jh3/tabsnap/internal/storage"
)

// Kind distinguishes tree nodes.
type Kind int

const (
	KindAction Kind = iota
	KindSession
	KindFiles
	KindFile
	KindInfo
)

// Action is the command a node triggers when selected.
type Action string

const (
	ActionNone           Action = ""
	ActionSave           Action = "save"
	ActionChangeLocation Action = "change-location"
	ActionDeleteAll      Action = "delete-all"
	ActionRestore        Action = "restore"
	ActionOverwrite      Action = "overwrite"
	ActionDelete         Action = "delete"
	ActionOpenFile       Action = "open-file"
)

// Node is one row of the tree.
type Node struct {
	Kind        Kind
	Label       string
	Description string
	Tooltip     string
	Action      Action
	Expandable  bool

	Record storage.Record // session node and its children
	Tab    session.Tab    // file nodes
}

// Lister provides the stored sessions and a description of where they live.
type Lister interface {
	List(ctx context.Context) ([]storage.Record, error)
	Describe(ctx context.Context) string
}

// LoadFunc reads a session file, reporting false when it has no usable data.
type LoadFunc func(rec storage.Record) (session.Document, bool)

// Tree computes sidebar nodes.
type Tree struct {
	lister Lister
	load   LoadFunc
}

// New creates a Tree.
func New(lister Lister, load LoadFunc) *Tree {
	return &Tree{lister: lister, load: load}
}

// Roots returns the top level: fixed actions, one node per session and the
// storage location line.
func (t *Tree) Roots(ctx context.Context) ([]Node, error) {
	nodes := []Node{
		{Kind: KindAction, Label: "Save Session", Action: ActionSave},
		{Kind: KindAction, Label: "Change Location", Action: ActionChangeLocation},
		{Kind: KindAction, Label: "Delete All Sessions", Action: ActionDeleteAll},
	}

	records, err := t.lister.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		nodes = append(nodes, Node{
			Kind:       KindSession,
			Label:      r.Name,
			Tooltip:    r.Path,
			Expandable: true,
			Record:     r,
		})
	}

	nodes = append(nodes, Node{Kind: KindInfo, Label: t.lister.Describe(ctx)})
	return nodes, nil
}

// Children expands a session or its files node. Other nodes have none.
func (t *Tree) Children(ctx context.Context, n Node) ([]Node, error) {
	switch n.Kind {
	case KindSession:
		return []Node{
			{Kind: KindAction, Label: "Restore", Action: ActionRestore, Record: n.Record},
			{Kind: KindAction, Label: "Overwrite", Action: ActionOverwrite, Record: n.Record},
			{Kind: KindAction, Label: "Delete", Action: ActionDelete, Record: n.Record},
			{Kind: KindFiles, Label: "Files", Expandable: true, Record: n.Record},
		}, nil
	case KindFiles:
		doc, ok := t.load(n.Record)
		if !ok {
			return nil, nil
		}
		nodes := make([]Node, 0, len(doc.Tabs))
		for _, tab := range doc.Tabs {
			nodes = append(nodes, fileNode(n.Record, tab))
		}
		return nodes, nil
	default:
		return nil, nil
	}
}

func fileNode(rec storage.Record, tab session.Tab) Node {
	tooltip := tab.URI
	if tab.Cursor != nil {
		tooltip += fmt.Sprintf("\nLine %d, Column %d", tab.Cursor.Line+1, tab.Cursor.Character+1)
	}
	return Node{
		Kind:        KindFile,
		Label:       baseName(tab.URI),
		Description: fmt.Sprintf("group %d · tab %d", tab.GroupIndex+1, tab.TabIndex+1),
		Tooltip:     tooltip,
		Action:      ActionOpenFile,
		Record:      rec,
		Tab:         tab,
	}
}

func baseName(uri string) string {
	if u, err := url.Parse(uri); err == nil {
		switch {
		case u.Path != "":
			return path.Base(u.Path)
		case u.Opaque != "":
			return path.Base(u.Opaque)
		}
	}
	return path.Base(uri)
}
