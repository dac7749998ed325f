// Package tmux implements a workbench on top of a tmux session. Each tmux
// window is a group and each pane in it a tab running an editor on one file.
// Pane user options record which document a pane shows.
package tmux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/GianlucaP106/gotmux/gotmux"
	"go.uber.org/zap"

	apperr "github.com/jh3/tabsnap/internal/errors"
	"github.com/jh3/tabsnap/internal/host"
)

// Pane options tabsnap sets on the panes it manages.
const (
	optKind        = "@tabsnap_kind"
	optURI         = "@tabsnap_uri"
	optOriginal    = "@tabsnap_original"
	optLine        = "@tabsnap_line"
	optChar        = "@tabsnap_char"
	optPlaceholder = "@tabsnap_placeholder"
)

var paneFormat = strings.Join([]string{
	"#{window_id}",
	"#{window_index}",
	"#{window_active}",
	"#{pane_id}",
	"#{pane_index}",
	"#{pane_active}",
	"#{" + optKind + "}",
	"#{" + optURI + "}",
	"#{" + optOriginal + "}",
	"#{" + optLine + "}",
	"#{" + optChar + "}",
	"#{" + optPlaceholder + "}",
}, "\t")

var _ host.Workbench = (*Workbench)(nil)

// Runner executes a tmux command and returns its output. *gotmux.Tmux
// satisfies it.
type Runner interface {
	Command(args ...string) (string, error)
}

// Options configure a Workbench.
type Options struct {
	Session  string
	Dir      string
	Editor   string
	SaveKeys []string
	Logger   *zap.Logger
}

// Workbench drives a tmux session as the editor host.
type Workbench struct {
	tmux     Runner
	ctl      control
	client   *gotmux.Tmux
	session  string
	dir      string
	editor   string
	saveKeys []string
	log      *zap.Logger
}

// New connects to the default tmux server and creates the workbench session
// if it does not exist yet.
func New(opts Options) (*Workbench, error) {
	t, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, apperr.HostCommandFailed("tmux.New", "tmux is not available", err)
	}
	if opts.Session == "" {
		opts.Session = ProjectToSessionName(opts.Dir)
	}

	if !t.HasSession(opts.Session) {
		_, err := t.NewSession(&gotmux.SessionOptions{
			Name:           opts.Session,
			StartDirectory: opts.Dir,
		})
		if err != nil {
			return nil, apperr.HostCommandFailed("tmux.New", "failed to create session "+opts.Session, err)
		}
		w := newGotmux(t, opts)
		if err := w.markPlaceholders(); err != nil {
			return nil, err
		}
		return w, nil
	}
	return newGotmux(t, opts), nil
}

func newGotmux(t *gotmux.Tmux, opts Options) *Workbench {
	w := NewWithRunner(t, opts)
	w.client = t
	w.ctl = gotmuxControl{t: t}
	return w
}

// NewWithRunner creates a workbench over an existing session.
func NewWithRunner(r Runner, opts Options) *Workbench {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Session == "" {
		opts.Session = ProjectToSessionName(opts.Dir)
	}
	w := &Workbench{
		tmux:     r,
		session:  opts.Session,
		dir:      opts.Dir,
		editor:   opts.Editor,
		saveKeys: opts.SaveKeys,
		log:      log.Named("tmux"),
	}
	w.ctl = runnerControl{w: w}
	return w
}

// Session returns the tmux session name.
func (w *Workbench) Session() string {
	return w.session
}

// IsInsideTmux checks if we're running inside tmux
func IsInsideTmux() bool {
	return os.Getenv("TMUX") != ""
}

// SwitchTo points the current client at the workbench session.
func (w *Workbench) SwitchTo() error {
	if w.client != nil {
		return w.client.SwitchClient(&gotmux.SwitchClientOptions{
			TargetSession: w.session,
		})
	}
	_, err := w.run("switch-client", "-t", w.session)
	return err
}

// ProjectToSessionName converts a project path to a session name
func ProjectToSessionName(projectPath string) string {
	name := filepath.Base(projectPath)
	if projectPath == "" || name == "" || name == "." || name == string(filepath.Separator) {
		return "tabsnap"
	}
	return "tabsnap-" + strings.ReplaceAll(name, ".", "_")
}

// pane is one row of list-panes output.
type pane struct {
	windowID     string
	windowIndex  int
	windowActive bool
	id           string
	index        int
	active       bool
	input        host.TabInput
	cursor       *host.Position
	placeholder  bool
}

func (w *Workbench) run(args ...string) (string, error) {
	out, err := w.tmux.Command(args...)
	if err != nil {
		w.log.Debug("tmux command failed", zap.Strings("args", args), zap.Error(err))
		return "", apperr.HostCommandFailed(apperr.Op("tmux."+args[0]), strings.Join(args, " "), err)
	}
	return out, nil
}

func (w *Workbench) listPanes() ([]pane, error) {
	out, err := w.run("list-panes", "-s", "-t", w.session, "-F", paneFormat)
	if err != nil {
		return nil, err
	}
	return parsePanes(out), nil
}

func parsePanes(out string) []pane {
	var panes []pane
	// Unset options render as empty trailing fields, so only newlines are trimmed.
	for _, line := range strings.Split(strings.TrimRight(out, "\r\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		f := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(f) < 12 {
			continue
		}
		p := pane{
			windowID:     f[0],
			windowIndex:  atoi(f[1]),
			windowActive: f[2] == "1",
			id:           f[3],
			index:        atoi(f[4]),
			active:       f[5] == "1",
			input:        tabInput(f[6], f[7], f[8]),
			placeholder:  f[11] == "1",
		}
		if f[9] != "" {
			p.cursor = &host.Position{Line: atoi(f[9]), Character: atoi(f[10])}
		}
		panes = append(panes, p)
	}
	sort.SliceStable(panes, func(i, j int) bool {
		if panes[i].windowIndex != panes[j].windowIndex {
			return panes[i].windowIndex < panes[j].windowIndex
		}
		return panes[i].index < panes[j].index
	})
	return panes
}

func tabInput(kind, uri, original string) host.TabInput {
	switch kind {
	case "text":
		return host.TabInput{Kind: host.KindText, URI: uri}
	case "diff":
		return host.TabInput{Kind: host.KindDiff, Original: original, Modified: uri}
	default:
		return host.TabInput{Kind: host.KindOther}
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// window groups the panes of one tmux window.
type window struct {
	id     string
	active bool
	panes  []pane
}

func windows(panes []pane) []window {
	var out []window
	for _, p := range panes {
		if len(out) == 0 || out[len(out)-1].id != p.windowID {
			out = append(out, window{id: p.windowID, active: p.windowActive})
		}
		out[len(out)-1].panes = append(out[len(out)-1].panes, p)
	}
	return out
}

func (w *Workbench) Groups(ctx context.Context) ([]host.Group, error) {
	panes, err := w.listPanes()
	if err != nil {
		return nil, err
	}
	var groups []host.Group
	for i, win := range windows(panes) {
		g := host.Group{ViewColumn: i + 1, Active: win.active}
		for _, p := range win.panes {
			g.Tabs = append(g.Tabs, host.Tab{ID: p.id, Input: p.input, Active: p.active})
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (w *Workbench) CloseTab(ctx context.Context, tab host.Tab) error {
	panes, err := w.listPanes()
	if err != nil {
		return err
	}
	if len(panes) <= 1 {
		// The last pane keeps the session alive.
		if _, err := w.run("respawn-pane", "-k", "-t", tab.ID); err != nil {
			return err
		}
		return w.setPlaceholder(tab.ID)
	}
	return w.ctl.KillPane(tab.ID)
}

func (w *Workbench) CloseAll(ctx context.Context) error {
	panes, err := w.listPanes()
	if err != nil {
		return err
	}
	_, paneID, err := w.newWindow(w.dir)
	if err != nil {
		return err
	}
	if err := w.setPlaceholder(paneID); err != nil {
		return err
	}
	for _, win := range windows(panes) {
		if err := w.ctl.KillWindow(win.id); err != nil {
			return err
		}
	}
	return nil
}

// newWindow creates a detached window running cmd, or a shell when cmd is
// empty, and returns its window and pane ids.
func (w *Workbench) newWindow(dir string, cmd ...string) (string, string, error) {
	args := []string{"new-window", "-d", "-t", w.session + ":", "-c", dir, "-P", "-F", "#{window_id}\t#{pane_id}"}
	out, err := w.run(append(args, cmd...)...)
	if err != nil {
		return "", "", err
	}
	winID, paneID, ok := strings.Cut(strings.TrimSpace(out), "\t")
	if !ok {
		return "", "", apperr.HostCommandFailed("tmux.new-window", "unexpected output "+strconv.Quote(out), nil)
	}
	return winID, paneID, nil
}

func (w *Workbench) setPlaceholder(paneID string) error {
	if _, err := w.run("set-option", "-p", "-t", paneID, optPlaceholder, "1"); err != nil {
		return err
	}
	for _, opt := range []string{optKind, optURI, optOriginal, optLine, optChar} {
		if _, err := w.run("set-option", "-p", "-u", "-t", paneID, opt); err != nil {
			return err
		}
	}
	return nil
}

// markPlaceholders tags every untagged pane of a fresh session.
func (w *Workbench) markPlaceholders() error {
	panes, err := w.listPanes()
	if err != nil {
		return err
	}
	for _, p := range panes {
		if p.input.Kind == host.KindOther && !p.placeholder {
			if err := w.setPlaceholder(p.id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Workbench) Open(ctx context.Context, uri string, opts host.OpenOptions) error {
	file, err := URIToPath(uri)
	if err != nil {
		return err
	}
	if _, err := os.Stat(file); err != nil {
		return err
	}

	panes, err := w.listPanes()
	if err != nil {
		return err
	}
	wins := windows(panes)
	previous := ""
	for _, win := range wins {
		if win.active {
			previous = win.id
		}
	}

	column := opts.ViewColumn
	if column < 1 {
		column = 1
	}
	cmd := w.editorCommand(file, opts.Cursor)

	var winID, paneID string
	spawned := true
	switch {
	case column > len(wins):
		for i := len(wins) + 1; i < column; i++ {
			_, gap, err := w.newWindow(w.dir)
			if err != nil {
				return err
			}
			if err := w.setPlaceholder(gap); err != nil {
				return err
			}
		}
		winID, paneID, err = w.newWindow(filepath.Dir(file), cmd)
		if err != nil {
			return err
		}
	default:
		winID = wins[column-1].id
		paneID, spawned, err = w.openInWindow(wins[column-1], uri, file, cmd)
		if err != nil {
			return err
		}
	}

	// A reused pane keeps its editor, and with it the caret it recorded.
	if spawned {
		if err := w.tag(paneID, uri, opts.Cursor); err != nil {
			return err
		}
	}
	if err := w.ctl.SelectPane(paneID); err != nil {
		return err
	}
	if !opts.PreserveFocus {
		return w.ctl.SelectWindow(winID)
	}
	if previous != "" && previous != winID {
		return w.ctl.SelectWindow(previous)
	}
	return nil
}

// openInWindow reuses a pane already showing uri, then a placeholder pane,
// and splits the window otherwise. spawned reports whether an editor was
// started.
func (w *Workbench) openInWindow(win window, uri, file, cmd string) (paneID string, spawned bool, err error) {
	for _, p := range win.panes {
		if own, ok := p.input.FileURI(); ok && own == uri {
			return p.id, false, nil
		}
	}
	for _, p := range win.panes {
		if p.placeholder {
			if _, err := w.run("respawn-pane", "-k", "-t", p.id, "-c", filepath.Dir(file), cmd); err != nil {
				return "", false, err
			}
			if _, err := w.run("set-option", "-p", "-u", "-t", p.id, optPlaceholder); err != nil {
				return "", false, err
			}
			return p.id, true, nil
		}
	}
	out, err := w.run("split-window", "-d", "-t", win.id, "-c", filepath.Dir(file), "-P", "-F", "#{pane_id}", cmd)
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(out), true, nil
}

func (w *Workbench) tag(paneID, uri string, cursor *host.Position) error {
	opts := [][2]string{{optKind, "text"}, {optURI, uri}}
	if cursor != nil {
		opts = append(opts,
			[2]string{optLine, strconv.Itoa(cursor.Line)},
			[2]string{optChar, strconv.Itoa(cursor.Character)})
	}
	for _, o := range opts {
		if _, err := w.run("set-option", "-p", "-t", paneID, o[0], o[1]); err != nil {
			return err
		}
	}
	return nil
}

// editorCommand renders the editor command line for file.
func (w *Workbench) editorCommand(file string, cursor *host.Position) string {
	line, col := 1, 1
	if cursor != nil {
		line, col = cursor.Line+1, cursor.Character+1
	}
	tmpl := w.editor
	if tmpl == "" {
		tmpl = "vi"
	}
	if !strings.Contains(tmpl, "{file}") {
		tmpl += " +{line} {file}"
	}
	r := strings.NewReplacer(
		"{file}", shellQuote(file),
		"{line}", strconv.Itoa(line),
		"{col}", strconv.Itoa(col),
	)
	return r.Replace(tmpl)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (w *Workbench) Documents(ctx context.Context) ([]host.Document, error) {
	panes, err := w.listPanes()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var docs []host.Document
	for _, p := range panes {
		uri, ok := p.input.FileURI()
		if !ok || seen[uri] {
			continue
		}
		seen[uri] = true
		docs = append(docs, host.Document{URI: uri})
	}
	return docs, nil
}

// SaveAll sends the configured save keys to every editor pane.
func (w *Workbench) SaveAll(ctx context.Context) error {
	if len(w.saveKeys) == 0 {
		return nil
	}
	panes, err := w.listPanes()
	if err != nil {
		return err
	}
	for _, p := range panes {
		if _, ok := p.input.FileURI(); !ok {
			continue
		}
		if err := w.ctl.SendKeys(p.id, w.saveKeys); err != nil {
			return err
		}
	}
	return nil
}

// VisibleEditors reports the editor panes of the active window with the
// caret recorded when they were opened.
func (w *Workbench) VisibleEditors(ctx context.Context) ([]host.VisibleEditor, error) {
	panes, err := w.listPanes()
	if err != nil {
		return nil, err
	}
	var eds []host.VisibleEditor
	for _, p := range panes {
		uri, ok := p.input.FileURI()
		if !ok || !p.windowActive || p.cursor == nil {
			continue
		}
		eds = append(eds, host.VisibleEditor{URI: uri, Cursor: *p.cursor})
	}
	return eds, nil
}

// PathToURI converts a file path to a file URI.
func PathToURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// URIToPath converts a file URI, or a plain path, to a local path.
func URIToPath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return filepath.Abs(uri)
	}
	if !strings.HasPrefix(uri, "file://") {
		return "", fmt.Errorf("unsupported uri %s", uri)
	}
	return filepath.FromSlash(strings.TrimPrefix(uri, "file://")), nil
}
