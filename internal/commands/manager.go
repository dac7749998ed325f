// Package commands implements the user-invokable session actions on top of
// the storage locator, session serializer and restore engine.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jh3/tabsnap/internal/config"
	"github.com/jh3/tabsnap/internal/cursor"
	apperr "github.com/jh3/tabsnap/internal/errors"
	"github.com/jh3/tabsnap/internal/host"
	"github.com/jh3/tabsnap/internal/restore"
	"github.com/jh3/tabsnap/internal/session"
	"github.com/jh3/tabsnap/internal/storage"
)

// Options wires a Manager to its collaborators.
type Options struct {
	Locator   *storage.Locator
	Settings  storage.Settings
	Tracker   *cursor.Tracker
	Workbench host.Workbench
	Prompter  host.Prompter
	Notifier  host.Notifier
	Logger    *zap.Logger
}

// Manager owns the cursor tracker and runs session commands. Each command
// is independent: a failure in one leaves the manager usable for the next.
type Manager struct {
	locator   *storage.Locator
	settings  storage.Settings
	tracker   *cursor.Tracker
	wb        host.Workbench
	prompter  host.Prompter
	notify    host.Notifier
	engine    *restore.Engine
	log       *zap.Logger
	listeners []func()
}

// New creates a Manager.
func New(opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = cursor.New()
	}
	return &Manager{
		locator:  opts.Locator,
		settings: opts.Settings,
		tracker:  tracker,
		wb:       opts.Workbench,
		prompter: opts.Prompter,
		notify:   opts.Notifier,
		engine:   restore.New(opts.Workbench, opts.Prompter, opts.Notifier, tracker, log),
		log:      log.Named("commands"),
	}
}

// Tracker returns the cursor tracker the manager owns.
func (m *Manager) Tracker() *cursor.Tracker {
	return m.tracker
}

// Locator returns the storage locator.
func (m *Manager) Locator() *storage.Locator {
	return m.locator
}

// OnChange registers fn to run after any command that changes stored sessions
// or the storage location.
func (m *Manager) OnChange(fn func()) {
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) changed() {
	for _, fn := range m.listeners {
		fn()
	}
}

// Ref names a session either by a listed record or by name. The zero Ref
// makes commands ask the user to pick one.
type Ref struct {
	Record *storage.Record
	Name   string
}

// RecordRef refers to a listed session file.
func RecordRef(r storage.Record) Ref {
	return Ref{Record: &r}
}

// NameRef refers to a session by name in the current location.
func NameRef(name string) Ref {
	return Ref{Name: name}
}

// List returns the sessions in the current location.
func (m *Manager) List(ctx context.Context) ([]storage.Record, error) {
	return m.locator.List(ctx)
}

// SyncCursors reseeds the tracker from the editors currently on screen.
func (m *Manager) SyncCursors(ctx context.Context) error {
	editors, err := m.wb.VisibleEditors(ctx)
	if err != nil {
		return err
	}
	m.tracker.VisibleEditorsChanged(editors)
	return nil
}

func (m *Manager) resolveDir(ctx context.Context) (string, bool, error) {
	dir, ok, err := m.locator.Resolve(ctx, storage.ResolveOptions{Prompt: true, Create: true})
	if err != nil {
		return "", false, err
	}
	if !ok {
		m.log.Warn("storage location unresolved", zap.String("mode", string(m.locator.Mode())))
		m.notify.Warn(fmt.Sprintf("No session folder available (%s). Open a workspace folder or change the session location.", m.locator.Mode().Label()))
		return "", false, nil
	}
	return dir, true, nil
}

func (m *Manager) askName(ctx context.Context) (string, error) {
	validate := func(s string) string {
		if _, err := storage.SanitizeName(s); err != nil {
			return "Session name must not be empty."
		}
		return ""
	}
	raw, err := m.prompter.Input(ctx, "Session name", "", validate)
	if err != nil || raw == "" {
		return "", err
	}
	name, err := storage.SanitizeName(raw)
	if err != nil {
		return "", nil
	}
	return name, nil
}

func (m *Manager) pick(ctx context.Context, title string) (storage.Record, bool, error) {
	records, err := m.locator.List(ctx)
	if err != nil {
		return storage.Record{}, false, err
	}
	if len(records) == 0 {
		m.notify.Info("No saved sessions.")
		return storage.Record{}, false, nil
	}

	items := make([]host.Item, len(records))
	for i, r := range records {
		items[i] = host.Item{Label: r.Name, Detail: r.Path}
	}
	idx, err := m.prompter.Pick(ctx, title, items)
	if err != nil || idx < 0 || idx >= len(records) {
		return storage.Record{}, false, err
	}
	return records[idx], true, nil
}

func (m *Manager) lookup(ctx context.Context, ref Ref, title string) (storage.Record, bool, error) {
	switch {
	case ref.Record != nil:
		return *ref.Record, true, nil
	case ref.Name != "":
		rec, ok, err := m.locator.Find(ctx, ref.Name)
		if err != nil {
			return storage.Record{}, false, err
		}
		if !ok {
			m.notify.Warn(fmt.Sprintf("Session %q not found.", ref.Name))
		}
		return rec, ok, nil
	default:
		return m.pick(ctx, title)
	}
}

// Load reads a session file, warning the user about missing or invalid
// files instead of returning an error.
func (m *Manager) Load(rec storage.Record) (session.Document, bool) {
	doc, err := session.Load(rec.Path)
	if err == nil {
		return doc, true
	}

	m.log.Warn("load failed", zap.String("path", rec.Path), zap.Error(err))
	switch apperr.GetKind(err) {
	case apperr.KindNotFound:
		m.notify.Warn(fmt.Sprintf("Session file for %q was not found.", rec.Name))
	case apperr.KindInvalid:
		m.notify.Warn(fmt.Sprintf("Session %q is not a valid session file.", rec.Name))
	default:
		m.notify.Warn(fmt.Sprintf("Could not read session %q: %v", rec.Name, err))
	}
	return session.Document{}, false
}

// saveResult reports what saveAs did.
type saveResult int

const (
	saved saveResult = iota
	nothingSaved
	declined
)

// saveAs captures the current layout into dir/name.json. When confirm is set
// an existing session is only replaced after the user agrees.
func (m *Manager) saveAs(ctx context.Context, dir, name string, confirm bool) (saveResult, error) {
	path := storage.PathFor(dir, name)
	if confirm {
		if _, err := os.Stat(path); err == nil {
			choice, err := m.prompter.Choose(ctx, fmt.Sprintf("Session %q already exists. Overwrite it?", name), "Overwrite")
			if err != nil {
				return declined, err
			}
			if choice != "Overwrite" {
				return declined, nil
			}
		}
	}

	if err := m.SyncCursors(ctx); err != nil {
		m.log.Debug("cursor sync failed", zap.Error(err))
	}
	doc, err := session.Capture(ctx, m.wb, m.tracker)
	if errors.Is(err, session.ErrNothingToSave) {
		m.notify.Info("There are no open files to save.")
		return nothingSaved, nil
	}
	if err != nil {
		return declined, err
	}

	if err := session.Write(path, doc); err != nil {
		return declined, err
	}
	m.log.Info("session saved", zap.String("path", path), zap.Int("tabs", len(doc.Tabs)))
	m.notify.Info(fmt.Sprintf("Session %q saved.", name))
	m.changed()
	return saved, nil
}

// Save asks for a name and saves the open tabs as a new session.
func (m *Manager) Save(ctx context.Context) error {
	dir, ok, err := m.resolveDir(ctx)
	if err != nil || !ok {
		return err
	}
	name, err := m.askName(ctx)
	if err != nil || name == "" {
		return err
	}
	_, err = m.saveAs(ctx, dir, name, true)
	return err
}

// Overwrite replaces a stored session with the open tabs.
func (m *Manager) Overwrite(ctx context.Context, ref Ref) error {
	rec, ok, err := m.lookup(ctx, ref, "Select session to overwrite")
	if err != nil || !ok {
		return err
	}
	choice, err := m.prompter.Choose(ctx, fmt.Sprintf("Overwrite session %q with the open tabs?", rec.Name), "Overwrite")
	if err != nil || choice != "Overwrite" {
		return err
	}
	_, err = m.saveAs(ctx, filepath.Dir(rec.Path), rec.Name, false)
	return err
}

// Restore lets the user pick a session and restores it.
func (m *Manager) Restore(ctx context.Context) (restore.Outcome, error) {
	rec, ok, err := m.pick(ctx, "Select session to restore")
	if err != nil || !ok {
		return restore.Cancelled, err
	}
	return m.restoreRecord(ctx, rec)
}

// RestoreNamed restores the referenced session, first offering to save the
// current layout according to the save-before-restore setting.
func (m *Manager) RestoreNamed(ctx context.Context, ref Ref) (restore.Outcome, error) {
	rec, ok, err := m.lookup(ctx, ref, "Select session to restore")
	if err != nil || !ok {
		return restore.Cancelled, err
	}
	proceed, err := m.saveBeforeSwitch(ctx)
	if err != nil || !proceed {
		return restore.Cancelled, err
	}
	return m.restoreRecord(ctx, rec)
}

func (m *Manager) restoreRecord(ctx context.Context, rec storage.Record) (restore.Outcome, error) {
	doc, ok := m.Load(rec)
	if !ok {
		return restore.Cancelled, nil
	}
	return m.engine.Restore(ctx, doc, rec.Name)
}

// Delete removes a stored session after confirmation.
func (m *Manager) Delete(ctx context.Context, ref Ref) error {
	rec, ok, err := m.lookup(ctx, ref, "Select session to delete")
	if err != nil || !ok {
		return err
	}
	choice, err := m.prompter.Choose(ctx, fmt.Sprintf("Delete session %q?", rec.Name), "Delete")
	if err != nil || choice != "Delete" {
		return err
	}
	if err := storage.Delete(rec); err != nil {
		return err
	}
	m.log.Info("session deleted", zap.String("path", rec.Path))
	m.notify.Info(fmt.Sprintf("Session %q deleted.", rec.Name))
	m.changed()
	return nil
}

// DeleteAll removes every session in the current location after confirmation.
func (m *Manager) DeleteAll(ctx context.Context) error {
	_, ok, err := m.locator.Resolve(ctx, storage.ResolveOptions{})
	if err != nil {
		return err
	}
	if !ok {
		m.notify.Warn("No session folder is set.")
		return nil
	}
	records, err := m.locator.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		m.notify.Info("No saved sessions.")
		return nil
	}

	choice, err := m.prompter.Choose(ctx, fmt.Sprintf("Delete all %d sessions in %s?", len(records), filepath.Dir(records[0].Path)), "Delete All")
	if err != nil || choice != "Delete All" {
		return err
	}
	n, err := m.locator.DeleteAll(ctx)
	if n > 0 {
		m.changed()
	}
	if err != nil {
		return err
	}
	m.notify.Info(fmt.Sprintf("Deleted %d sessions.", n))
	return nil
}

// ChangeLocation lets the user pick the storage mode, and the folder when
// the mode needs one.
func (m *Manager) ChangeLocation(ctx context.Context) error {
	current := m.locator.Mode()
	items := make([]host.Item, len(storage.Modes))
	for i, mode := range storage.Modes {
		items[i] = host.Item{Label: mode.Label(), Description: string(mode)}
		if mode == current {
			items[i].Description += " (current)"
		}
	}
	idx, err := m.prompter.Pick(ctx, "Where should sessions be stored?", items)
	if err != nil || idx < 0 || idx >= len(storage.Modes) {
		return err
	}
	mode := storage.Modes[idx]

	switch mode {
	case storage.ModeCustom:
		_, ok, err := m.locator.ChooseCustomFolder(ctx)
		if err != nil {
			return err
		}
		if !ok && m.settings.Get(config.KeyCustomFolder) == "" {
			return nil
		}
	case storage.ModeWorkspace:
		if len(m.locator.Roots()) > 1 {
			root, ok, err := m.locator.PickRoot(ctx)
			if err != nil || !ok {
				return err
			}
			if err := m.settings.Update(config.KeyWorkspaceFolder, root); err != nil {
				return err
			}
		}
	}

	if err := m.locator.SetMode(mode); err != nil {
		return err
	}
	m.log.Info("storage location changed", zap.String("mode", string(mode)))
	m.notify.Info(fmt.Sprintf("Sessions location: %s", m.locator.Describe(ctx)))
	m.changed()
	return nil
}

// OpenFile opens one tab of a stored session with focus.
func (m *Manager) OpenFile(ctx context.Context, tab session.Tab) error {
	opts := host.OpenOptions{ViewColumn: tab.ViewColumn}
	if tab.Cursor != nil {
		pos := tab.Cursor.Position()
		opts.Cursor = &pos
	}
	if err := m.wb.Open(ctx, tab.URI, opts); err != nil {
		m.notify.Warn(fmt.Sprintf("Could not open %s: %v", tab.URI, err))
		return nil
	}
	// An editor that was already open may not have moved its caret.
	if err := m.SyncCursors(ctx); err != nil {
		m.log.Warn("failed to read cursors after open", zap.Error(err))
	}
	return nil
}
