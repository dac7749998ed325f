// Package session converts open tabs to and from the JSON session format.
package session

import (
	"sort"

	"github.com/jh3/tabsnap/internal/host"
)

const (
	// CurrentVersion is written by every save.
	CurrentVersion = 2
	// LegacyVersion is assumed when a file has no usable version.
	LegacyVersion = 1
)

// Cursor is the primary caret of a document.
type Cursor struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Position converts the cursor to the host representation.
func (c Cursor) Position() host.Position {
	return host.Position{Line: c.Line, Character: c.Character}
}

// Tab describes one saved open document.
type Tab struct {
	URI            string  `json:"uri"`
	GroupIndex     int     `json:"groupIndex"`
	TabIndex       int     `json:"tabIndex"`
	ViewColumn     int     `json:"viewColumn"`
	IsGroupActive  bool    `json:"isGroupActive"`
	IsGlobalActive bool    `json:"isGlobalActive"`
	Cursor         *Cursor `json:"cursor,omitempty"`
}

// Document is the persisted form of a session.
type Document struct {
	Version int   `json:"version"`
	Tabs    []Tab `json:"tabs"`
}

// URIs returns the set of documents the session references.
func (d Document) URIs() map[string]bool {
	set := make(map[string]bool, len(d.Tabs))
	for _, t := range d.Tabs {
		set[t.URI] = true
	}
	return set
}

// GlobalActive returns the tab that held window focus at save time. When
// several are marked, the last one wins.
func (d Document) GlobalActive() (Tab, bool) {
	var active Tab
	found := false
	for _, t := range d.Tabs {
		if t.IsGlobalActive {
			active = t
			found = true
		}
	}
	return active, found
}

// ReplayOrder returns the tabs in the order a restore opens them: by group,
// then inactive tabs before the group's active tab, then by tab position.
// Opening the active tab last leaves it focused in its group.
func (d Document) ReplayOrder() []Tab {
	tabs := append([]Tab(nil), d.Tabs...)
	sort.SliceStable(tabs, func(i, j int) bool {
		a, b := tabs[i], tabs[j]
		if a.GroupIndex != b.GroupIndex {
			return a.GroupIndex < b.GroupIndex
		}
		if a.IsGroupActive != b.IsGroupActive {
			return !a.IsGroupActive
		}
		return a.TabIndex < b.TabIndex
	})
	return tabs
}
