// Package host declares the editor capabilities tabsnap drives but does not own:
// the open tab model, modal and pick prompts, folder dialogs and user messages.
// Concrete hosts live elsewhere (internal/tmux, internal/ui); tests use hosttest.
package host

import "context"

// TabKind identifies what a tab shows.
type TabKind int

const (
	KindOther TabKind = iota
	KindText
	KindDiff
	KindMerge
)

func (k TabKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDiff:
		return "diff"
	case KindMerge:
		return "merge"
	default:
		return "other"
	}
}

// TabInput describes the content of a tab. Which fields are set depends on Kind.
type TabInput struct {
	Kind TabKind

	URI string // text

	Original string // diff
	Modified string

	Base   string // merge
	Input1 string
	Input2 string
	Result string
}

// FileURI returns the file identity a tab represents in a session: the
// document for text tabs, the modified side of a diff, the result of a merge.
func (in TabInput) FileURI() (string, bool) {
	var uri string
	switch in.Kind {
	case KindText:
		uri = in.URI
	case KindDiff:
		uri = in.Modified
	case KindMerge:
		uri = in.Result
	}
	return uri, uri != ""
}

// Position is a zero-based caret location. Character counts UTF-16 code units.
type Position struct {
	Line      int
	Character int
}

// Tab is one open slot within a group.
type Tab struct {
	ID     string // host identity, stable while the tab is open
	Input  TabInput
	Active bool // active tab of its own group
}

// Group is a split pane holding ordered tabs.
type Group struct {
	ViewColumn int
	Active     bool // the window's focused group
	Tabs       []Tab
}

// Document is an open text document, whether or not a tab shows it.
type Document struct {
	URI      string
	Untitled bool
	Dirty    bool
}

// VisibleEditor is a document currently shown on screen with its primary caret.
type VisibleEditor struct {
	URI    string
	Cursor Position
}

// OpenOptions control how Workbench.Open shows a document.
type OpenOptions struct {
	ViewColumn    int
	PreserveFocus bool
	// Cursor, when set, moves the caret and reveals it if it is off-screen.
	Cursor *Position
}

// Workbench is the host's tab and document API.
type Workbench interface {
	Groups(ctx context.Context) ([]Group, error)
	CloseTab(ctx context.Context, tab Tab) error
	CloseAll(ctx context.Context) error
	Open(ctx context.Context, uri string, opts OpenOptions) error
	Documents(ctx context.Context) ([]Document, error)
	SaveAll(ctx context.Context) error
	VisibleEditors(ctx context.Context) ([]VisibleEditor, error)
}

// Item is one quick-pick entry.
type Item struct {
	Label       string
	Description string
	Detail      string
}

// Prompter is the host's interactive prompt surface. Dismissing a prompt is
// not an error: Choose and Input return "", Pick returns -1, PickFolder "".
type Prompter interface {
	// Choose shows a modal message with the given choices.
	Choose(ctx context.Context, message string, choices ...string) (string, error)
	Pick(ctx context.Context, title string, items []Item) (int, error)
	// Input asks for a line of text. validate returns an error message or "".
	Input(ctx context.Context, prompt, value string, validate func(string) string) (string, error)
	PickFolder(ctx context.Context, title string) (string, error)
}

// Notifier shows non-modal messages to the user.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}
