// Package hosttest provides in-memory host implementations for tests.
package hosttest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jh3/tabsnap/internal/host"
)

// Workbench is an in-memory host.Workbench. Ops records every mutation in
// order as "open:<uri>@<column>", "focus:<uri>", "close:<uri>" or "closeAll".
type Workbench struct {
	mu      sync.Mutex
	groups  []host.Group
	extra   []host.Document
	dirty   map[string]bool
	cursors map[string]host.Position
	nextID  int

	Ops     []string
	OpenErr map[string]error
	Saved   int
	// KeepOpenCursor leaves the caret of an already open document where it
	// was, like a terminal editor that is not relaunched.
	KeepOpenCursor bool
}

// NewWorkbench returns an empty workbench.
func NewWorkbench() *Workbench {
	return &Workbench{
		dirty:   make(map[string]bool),
		cursors: make(map[string]host.Position),
		OpenErr: make(map[string]error),
	}
}

// AddTab opens a text tab in the group at column without recording an op.
func (w *Workbench) AddTab(column int, uri string, active bool) host.Tab {
	return w.AddInput(column, host.TabInput{Kind: host.KindText, URI: uri}, active)
}

// AddInput opens a tab of any kind in the group at column.
func (w *Workbench) AddInput(column int, in host.TabInput, active bool) host.Tab {
	w.mu.Lock()
	defer w.mu.Unlock()

	g := w.groupLocked(column)
	w.nextID++
	tab := host.Tab{ID: fmt.Sprintf("t%d", w.nextID), Input: in}
	if active {
		for i := range g.Tabs {
			g.Tabs[i].Active = false
		}
		tab.Active = true
	}
	g.Tabs = append(g.Tabs, tab)
	return tab
}

// FocusGroup makes the group at column the window's active group.
func (w *Workbench) FocusGroup(column int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focusLocked(column)
}

// AddDocument registers an open document that has no tab, such as an untitled buffer.
func (w *Workbench) AddDocument(doc host.Document) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.extra = append(w.extra, doc)
}

// SetDirty marks a document as having unsaved changes.
func (w *Workbench) SetDirty(uri string, dirty bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty[uri] = dirty
}

// SetCursor records the caret of a document.
func (w *Workbench) SetCursor(uri string, pos host.Position) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursors[uri] = pos
}

// Cursor returns the caret recorded for a document.
func (w *Workbench) Cursor(uri string) (host.Position, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	pos, ok := w.cursors[uri]
	return pos, ok
}

// OpenURIs lists the uris of all open tabs, group by group.
func (w *Workbench) OpenURIs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var uris []string
	for _, g := range w.groups {
		for _, t := range g.Tabs {
			if uri, ok := t.Input.FileURI(); ok {
				uris = append(uris, uri)
			}
		}
	}
	return uris
}

// ActiveURI returns the active tab of the active group.
func (w *Workbench) ActiveURI() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, g := range w.groups {
		if !g.Active {
			continue
		}
		for _, t := range g.Tabs {
			if t.Active {
				uri, _ := t.Input.FileURI()
				return uri
			}
		}
	}
	return ""
}

func (w *Workbench) Groups(ctx context.Context) ([]host.Group, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]host.Group, len(w.groups))
	for i, g := range w.groups {
		out[i] = g
		out[i].Tabs = append([]host.Tab(nil), g.Tabs...)
	}
	return out, nil
}

func (w *Workbench) CloseTab(ctx context.Context, tab host.Tab) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for gi := range w.groups {
		g := &w.groups[gi]
		for ti, t := range g.Tabs {
			if t.ID != tab.ID {
				continue
			}
			g.Tabs = append(g.Tabs[:ti], g.Tabs[ti+1:]...)
			if t.Active && len(g.Tabs) > 0 {
				g.Tabs[len(g.Tabs)-1].Active = true
			}
			uri, _ := t.Input.FileURI()
			w.Ops = append(w.Ops, "close:"+uri)
			w.dropEmptyLocked()
			return nil
		}
	}
	return fmt.Errorf("tab %s not open", tab.ID)
}

func (w *Workbench) CloseAll(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.groups = nil
	w.Ops = append(w.Ops, "closeAll")
	return nil
}

func (w *Workbench) Open(ctx context.Context, uri string, opts host.OpenOptions) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.OpenErr[uri]; err != nil {
		return err
	}

	column := opts.ViewColumn
	if column < 1 {
		column = 1
	}
	g := w.groupLocked(column)
	found := false
	for i := range g.Tabs {
		own, _ := g.Tabs[i].Input.FileURI()
		g.Tabs[i].Active = own == uri
		found = found || own == uri
	}
	if !found {
		w.nextID++
		g.Tabs = append(g.Tabs, host.Tab{
			ID:     fmt.Sprintf("t%d", w.nextID),
			Input:  host.TabInput{Kind: host.KindText, URI: uri},
			Active: true,
		})
	}
	if opts.Cursor != nil && !(found && w.KeepOpenCursor) {
		w.cursors[uri] = *opts.Cursor
	}

	op := fmt.Sprintf("open:%s@%d", uri, column)
	if !opts.PreserveFocus {
		w.focusLocked(column)
		op = "focus:" + uri
	}
	w.Ops = append(w.Ops, op)
	return nil
}

func (w *Workbench) Documents(ctx context.Context) ([]host.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	seen := make(map[string]bool)
	var docs []host.Document
	for _, g := range w.groups {
		for _, t := range g.Tabs {
			uri, ok := t.Input.FileURI()
			if !ok || seen[uri] {
				continue
			}
			seen[uri] = true
			docs = append(docs, host.Document{URI: uri, Dirty: w.dirty[uri]})
		}
	}
	for _, d := range w.extra {
		d.Dirty = d.Dirty || w.dirty[d.URI]
		docs = append(docs, d)
	}
	return docs, nil
}

func (w *Workbench) SaveAll(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Saved++
	for uri := range w.dirty {
		w.dirty[uri] = false
	}
	return nil
}

func (w *Workbench) VisibleEditors(ctx context.Context) ([]host.VisibleEditor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var eds []host.VisibleEditor
	for _, g := range w.groups {
		for _, t := range g.Tabs {
			if !t.Active {
				continue
			}
			uri, ok := t.Input.FileURI()
			if !ok {
				continue
			}
			eds = append(eds, host.VisibleEditor{URI: uri, Cursor: w.cursors[uri]})
		}
	}
	return eds, nil
}

func (w *Workbench) groupLocked(column int) *host.Group {
	for i := range w.groups {
		if w.groups[i].ViewColumn == column {
			return &w.groups[i]
		}
	}
	w.groups = append(w.groups, host.Group{ViewColumn: column, Active: len(w.groups) == 0})
	sort.SliceStable(w.groups, func(i, j int) bool {
		return w.groups[i].ViewColumn < w.groups[j].ViewColumn
	})
	for i := range w.groups {
		if w.groups[i].ViewColumn == column {
			return &w.groups[i]
		}
	}
	return nil
}

func (w *Workbench) focusLocked(column int) {
	for i := range w.groups {
		w.groups[i].Active = w.groups[i].ViewColumn == column
	}
}

func (w *Workbench) dropEmptyLocked() {
	kept := w.groups[:0]
	activeDropped := false
	for _, g := range w.groups {
		if len(g.Tabs) == 0 {
			activeDropped = activeDropped || g.Active
			continue
		}
		kept = append(kept, g)
	}
	w.groups = kept
	if activeDropped && len(w.groups) > 0 {
		w.groups[0].Active = true
	}
}

// Prompter answers prompts from scripted queues. An exhausted queue behaves
// like the user dismissing the prompt.
type Prompter struct {
	Choices []string
	Picks   []int
	Inputs  []string
	Folders []string

	Messages   []string // every Choose message, in order
	PickTitles []string
	PickItems  [][]host.Item
	Invalid    []string // validation messages returned for scripted inputs
}

func (p *Prompter) Choose(ctx context.Context, message string, choices ...string) (string, error) {
	p.Messages = append(p.Messages, message)
	if len(p.Choices) == 0 {
		return "", nil
	}
	c := p.Choices[0]
	p.Choices = p.Choices[1:]
	return c, nil
}

func (p *Prompter) Pick(ctx context.Context, title string, items []host.Item) (int, error) {
	p.PickTitles = append(p.PickTitles, title)
	p.PickItems = append(p.PickItems, items)
	if len(p.Picks) == 0 {
		return -1, nil
	}
	i := p.Picks[0]
	p.Picks = p.Picks[1:]
	return i, nil
}

func (p *Prompter) Input(ctx context.Context, prompt, value string, validate func(string) string) (string, error) {
	for len(p.Inputs) > 0 {
		in := p.Inputs[0]
		p.Inputs = p.Inputs[1:]
		if validate != nil {
			if msg := validate(in); msg != "" {
				p.Invalid = append(p.Invalid, msg)
				continue
			}
		}
		return in, nil
	}
	return "", nil
}

func (p *Prompter) PickFolder(ctx context.Context, title string) (string, error) {
	if len(p.Folders) == 0 {
		return "", nil
	}
	f := p.Folders[0]
	p.Folders = p.Folders[1:]
	return f, nil
}

// Notifier records messages.
type Notifier struct {
	Infos  []string
	Warns  []string
	Errors []string
}

func (n *Notifier) Info(msg string)  { n.Infos = append(n.Infos, msg) }
func (n *Notifier) Warn(msg string)  { n.Warns = append(n.Warns, msg) }
func (n *Notifier) Error(msg string) { n.Errors = append(n.Errors, msg) }
