// Package restore replays a saved session into the workbench.
package restore

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/jh3/tabsnap/internal/host"
	"github.com/jh3/tabsnap/internal/session"
)

// Outcome reports how a restore ended.
type Outcome int

const (
	Completed Outcome = iota
	Cancelled
	Empty
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Modal choices offered for open tabs that are not part of the session.
const (
	ChoiceCloseTab = "Close Tab"
	ChoiceCancel   = "Cancel Restore"
)

// CursorSink receives the carets a restore applies.
type CursorSink interface {
	Set(uri string, pos host.Position)
}

// Engine reproduces a session's layout in a workbench.
type Engine struct {
	wb       host.Workbench
	prompter host.Prompter
	notify   host.Notifier
	cursors  CursorSink
	log      *zap.Logger
}

// New creates a restore engine.
func New(wb host.Workbench, prompter host.Prompter, notify host.Notifier, cursors CursorSink, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		wb:       wb,
		prompter: prompter,
		notify:   notify,
		cursors:  cursors,
		log:      log.Named("restore"),
	}
}

// run is the state of one restore.
type run struct {
	doc  session.Document
	name string
	keep map[string]bool
}

// step returns false to abort the restore.
type step func(ctx context.Context, r *run) (bool, error)

// Restore closes open tabs, asking before closing any tab the session does
// not contain, then reopens the session's tabs in order and refocuses the
// tab that was active when it was saved. Steps already taken are not undone
// when a later one fails or is cancelled.
func (e *Engine) Restore(ctx context.Context, doc session.Document, name string) (Outcome, error) {
	if len(doc.Tabs) == 0 {
		e.notify.Warn(fmt.Sprintf("Session %q has no tabs to restore.", name))
		return Empty, nil
	}

	r := &run{doc: doc, name: name, keep: doc.URIs()}
	steps := []step{e.closeForeignTabs, e.closeAll, e.replay, e.focusActive}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return Cancelled, err
		}
		cont, err := s(ctx, r)
		if err != nil {
			return Cancelled, err
		}
		if !cont {
			e.log.Info("restore cancelled", zap.String("session", name))
			e.notify.Info(fmt.Sprintf("Restore of session %q cancelled.", name))
			return Cancelled, nil
		}
	}

	e.log.Info("restore completed", zap.String("session", name), zap.Int("tabs", len(doc.Tabs)))
	e.notify.Info(fmt.Sprintf("Session %q restored.", name))
	return Completed, nil
}

func (e *Engine) closeForeignTabs(ctx context.Context, r *run) (bool, error) {
	groups, err := e.wb.Groups(ctx)
	if err != nil {
		return false, err
	}

	for _, g := range groups {
		for _, tab := range g.Tabs {
			uri, ok := tab.Input.FileURI()
			if !ok || r.keep[uri] {
				continue
			}
			msg := fmt.Sprintf("%q is open but not part of session %q. Close it to continue?", path.Base(uri), r.name)
			choice, err := e.prompter.Choose(ctx, msg, ChoiceCloseTab, ChoiceCancel)
			if err != nil {
				return false, err
			}
			if choice != ChoiceCloseTab {
				return false, nil
			}
			if err := e.wb.CloseTab(ctx, tab); err != nil {
				return false, err
			}
			e.log.Debug("closed foreign tab", zap.String("uri", uri))
		}
	}
	return true, nil
}

func (e *Engine) closeAll(ctx context.Context, r *run) (bool, error) {
	return true, e.wb.CloseAll(ctx)
}

func (e *Engine) replay(ctx context.Context, r *run) (bool, error) {
	for _, tab := range r.doc.ReplayOrder() {
		if err := e.open(ctx, tab, true); err != nil {
			e.log.Warn("open failed", zap.String("uri", tab.URI), zap.Error(err))
			e.notify.Warn(fmt.Sprintf("Could not open %s: %v", tab.URI, err))
		}
	}
	return true, nil
}

func (e *Engine) focusActive(ctx context.Context, r *run) (bool, error) {
	active, ok := r.doc.GlobalActive()
	if !ok {
		return true, nil
	}
	if err := e.open(ctx, active, false); err != nil {
		e.log.Warn("focus failed", zap.String("uri", active.URI), zap.Error(err))
		e.notify.Warn(fmt.Sprintf("Could not focus %s: %v", active.URI, err))
	}
	return true, nil
}

func (e *Engine) open(ctx context.Context, tab session.Tab, preserveFocus bool) error {
	opts := host.OpenOptions{ViewColumn: column(tab), PreserveFocus: preserveFocus}
	if tab.Cursor != nil {
		pos := tab.Cursor.Position()
		opts.Cursor = &pos
	}
	if err := e.wb.Open(ctx, tab.URI, opts); err != nil {
		return err
	}
	if opts.Cursor != nil {
		e.cursors.Set(tab.URI, *opts.Cursor)
	}
	return nil
}

// column falls back to the group position for files without a view column.
func column(tab session.Tab) int {
	if tab.ViewColumn > 0 {
		return tab.ViewColumn
	}
	return tab.GroupIndex + 1
}
