package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jh3/tabsnap/internal/config"
	"github.com/jh3/tabsnap/internal/host"
	"github.com/jh3/tabsnap/internal/host/hosttest"
	"github.com/jh3/tabsnap/internal/restore"
	"github.com/jh3/tabsnap/internal/session"
	"github.com/jh3/tabsnap/internal/storage"
)

type fixture struct {
	dir      string
	root     string
	store    *config.Store
	wb       *hosttest.Workbench
	prompter *hosttest.Prompter
	notify   *hosttest.Notifier
	mgr      *Manager
	changes  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(root, 0755))

	store, err := config.Load(filepath.Join(dir, "config", "config.yaml"), root)
	require.NoError(t, err)

	f := &fixture{
		dir:      dir,
		root:     root,
		store:    store,
		wb:       hosttest.NewWorkbench(),
		prompter: &hosttest.Prompter{},
		notify:   &hosttest.Notifier{},
	}
	f.rebuild([]string{root})
	return f
}

func (f *fixture) rebuild(roots []string) {
	loc := storage.NewLocator(f.store, roots, filepath.Join(f.dir, "global"), f.prompter, nil)
	f.mgr = New(Options{
		Locator:   loc,
		Settings:  f.store,
		Workbench: f.wb,
		Prompter:  f.prompter,
		Notifier:  f.notify,
	})
	f.mgr.OnChange(func() { f.changes++ })
}

func (f *fixture) sessionsDir() string {
	return filepath.Join(f.root, ".tabsnap", "sessions")
}

func (f *fixture) names(t *testing.T) []string {
	t.Helper()
	records, err := f.mgr.List(context.Background())
	require.NoError(t, err)
	var out []string
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func (f *fixture) openDefaultTabs() {
	f.wb.AddTab(1, "file:///src/a.go", false)
	f.wb.AddTab(1, "file:///src/b.go", true)
	f.wb.AddTab(2, "file:///src/c.go", true)
	f.wb.FocusGroup(2)
}

func (f *fixture) save(t *testing.T, name string) {
	t.Helper()
	f.prompter.Inputs = []string{name}
	require.NoError(t, f.mgr.Save(context.Background()))
}

func TestSave_WritesSession(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()
	f.wb.SetCursor("file:///src/b.go", host.Position{Line: 7, Character: 1})

	f.save(t, "work")

	doc, err := session.Load(filepath.Join(f.sessionsDir(), "work.json"))
	require.NoError(t, err)
	assert.Equal(t, session.CurrentVersion, doc.Version)
	assert.Len(t, doc.Tabs, 3)
	assert.Equal(t, &session.Cursor{Line: 7, Character: 1}, doc.Tabs[1].Cursor, "visible editor carets are captured")

	active, ok := doc.GlobalActive()
	require.True(t, ok)
	assert.Equal(t, "file:///src/c.go", active.URI)

	assert.Equal(t, []string{`Session "work" saved.`}, f.notify.Infos)
	assert.Equal(t, 1, f.changes)
}

func TestSave_NothingToSave(t *testing.T) {
	f := newFixture(t)
	f.wb.AddInput(1, host.TabInput{Kind: host.KindOther, URI: "terminal://1"}, true)

	f.save(t, "empty")

	assert.NoFileExists(t, filepath.Join(f.sessionsDir(), "empty.json"))
	assert.Equal(t, []string{"There are no open files to save."}, f.notify.Infos)
	assert.Equal(t, 0, f.changes)
}

func TestSave_NameCancelled(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()

	require.NoError(t, f.mgr.Save(context.Background()))

	assert.Empty(t, f.names(t))
	assert.Empty(t, f.notify.Infos)
}

func TestSave_BlankNameRejected(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()

	f.prompter.Inputs = []string{"   ", "feature/login"}
	require.NoError(t, f.mgr.Save(context.Background()))

	assert.Equal(t, []string{"Session name must not be empty."}, f.prompter.Invalid)
	assert.Equal(t, []string{"feature_login"}, f.names(t))
}

func TestSave_ExistingNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()
	f.save(t, "work")

	f.wb.AddTab(1, "file:///src/d.go", false)
	f.save(t, "work")

	doc, err := session.Load(filepath.Join(f.sessionsDir(), "work.json"))
	require.NoError(t, err)
	assert.Len(t, doc.Tabs, 3, "declined overwrite keeps the old file")

	f.prompter.Inputs = []string{"work"}
	f.prompter.Choices = []string{"Overwrite"}
	require.NoError(t, f.mgr.Save(context.Background()))

	doc, err = session.Load(filepath.Join(f.sessionsDir(), "work.json"))
	require.NoError(t, err)
	assert.Len(t, doc.Tabs, 4)
}

func TestSave_NoLocation(t *testing.T) {
	f := newFixture(t)
	f.rebuild(nil)
	f.openDefaultTabs()

	f.save(t, "work")

	require.Len(t, f.notify.Warns, 1)
	assert.Contains(t, f.notify.Warns[0], "No session folder available")
}

func TestRoundTrip_SaveThenLoad(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()
	f.wb.AddInput(2, host.TabInput{Kind: host.KindOther}, false)
	f.save(t, "rt")

	rec, ok, err := f.mgr.Locator().Find(context.Background(), "rt")
	require.NoError(t, err)
	require.True(t, ok)

	doc, ok := f.mgr.Load(rec)
	require.True(t, ok)
	assert.Len(t, doc.Tabs, 3)
	assert.Equal(t, map[string]bool{
		"file:///src/a.go": true, "file:///src/b.go": true, "file:///src/c.go": true,
	}, doc.URIs())
}

func TestRestore_PicksAndRestores(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()
	f.save(t, "work")
	require.NoError(t, f.wb.CloseAll(context.Background()))
	f.wb.Ops = nil

	f.prompter.Picks = []int{0}
	out, err := f.mgr.Restore(context.Background())
	require.NoError(t, err)

	assert.Equal(t, restore.Completed, out)
	assert.Equal(t, []string{"file:///src/a.go", "file:///src/b.go", "file:///src/c.go"}, f.wb.OpenURIs())
	assert.Equal(t, "file:///src/c.go", f.wb.ActiveURI())
}

func TestRestore_NoSessions(t *testing.T) {
	f := newFixture(t)

	out, err := f.mgr.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, restore.Cancelled, out)
	assert.Equal(t, []string{"No saved sessions."}, f.notify.Infos)
}

func TestRestore_InvalidFileWarns(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.sessionsDir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.sessionsDir(), "broken.json"), []byte(`{"version": 2}`), 0644))

	f.prompter.Picks = []int{0}
	out, err := f.mgr.Restore(context.Background())
	require.NoError(t, err)

	assert.Equal(t, restore.Cancelled, out)
	assert.Equal(t, []string{`Session "broken" is not a valid session file.`}, f.notify.Warns)
}

func TestRestoreNamed_MissingName(t *testing.T) {
	f := newFixture(t)

	out, err := f.mgr.RestoreNamed(context.Background(), NameRef("ghost"))
	require.NoError(t, err)
	assert.Equal(t, restore.Cancelled, out)
	assert.Equal(t, []string{`Session "ghost" not found.`}, f.notify.Warns)
}

func TestRestoreNamed_VanishedRecord(t *testing.T) {
	f := newFixture(t)
	rec := storage.Record{Name: "gone", Path: filepath.Join(f.sessionsDir(), "gone.json")}

	out, err := f.mgr.RestoreNamed(context.Background(), RecordRef(rec))
	require.NoError(t, err)
	assert.Equal(t, restore.Cancelled, out)
	assert.Equal(t, []string{`Session file for "gone" was not found.`}, f.notify.Warns)
}

func TestDelete_RemovesOnlyNamed(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()
	f.save(t, "one")
	f.save(t, "two")
	f.save(t, "three")
	f.changes = 0

	f.prompter.Choices = []string{"Delete"}
	require.NoError(t, f.mgr.Delete(context.Background(), NameRef("two")))

	assert.Equal(t, []string{"one", "three"}, f.names(t))
	assert.Equal(t, 1, f.changes)
}

func TestDelete_Declined(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()
	f.save(t, "one")

	require.NoError(t, f.mgr.Delete(context.Background(), NameRef("one")))
	assert.Equal(t, []string{"one"}, f.names(t))
}

func TestOverwrite(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()
	f.save(t, "work")
	f.wb.AddTab(2, "file:///src/d.go", false)

	f.prompter.Picks = []int{0}
	f.prompter.Choices = []string{"Overwrite"}
	require.NoError(t, f.mgr.Overwrite(context.Background(), Ref{}))

	doc, err := session.Load(filepath.Join(f.sessionsDir(), "work.json"))
	require.NoError(t, err)
	assert.Len(t, doc.Tabs, 4)
}

func TestOverwrite_NothingToSaveKeepsFile(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()
	f.save(t, "work")
	require.NoError(t, f.wb.CloseAll(context.Background()))

	f.prompter.Choices = []string{"Overwrite"}
	require.NoError(t, f.mgr.Overwrite(context.Background(), NameRef("work")))

	doc, err := session.Load(filepath.Join(f.sessionsDir(), "work.json"))
	require.NoError(t, err)
	assert.Len(t, doc.Tabs, 3)
	assert.Contains(t, f.notify.Infos, "There are no open files to save.")
}

func TestDeleteAll(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()
	f.save(t, "one")
	f.save(t, "two")

	require.NoError(t, f.mgr.DeleteAll(context.Background()))
	assert.Len(t, f.names(t), 2, "declined confirmation keeps sessions")

	f.prompter.Choices = []string{"Delete All"}
	require.NoError(t, f.mgr.DeleteAll(context.Background()))
	assert.Empty(t, f.names(t))
	assert.Contains(t, f.notify.Infos, "Deleted 2 sessions.")
}

func TestChangeLocation_StorageIsPartitionedByMode(t *testing.T) {
	f := newFixture(t)
	f.openDefaultTabs()

	f.prompter.Picks = []int{1}
	require.NoError(t, f.mgr.ChangeLocation(context.Background()))
	assert.Equal(t, storage.ModeGlobal, f.mgr.Locator().Mode())

	f.save(t, "global-only")
	assert.FileExists(t, filepath.Join(f.dir, "global", "sessions", "global-only.json"))

	f.prompter.Picks = []int{0}
	require.NoError(t, f.mgr.ChangeLocation(context.Background()))
	assert.Empty(t, f.names(t))

	f.prompter.Picks = []int{1}
	require.NoError(t, f.mgr.ChangeLocation(context.Background()))
	assert.Equal(t, []string{"global-only"}, f.names(t))
}

func TestChangeLocation_Custom(t *testing.T) {
	f := newFixture(t)
	folder := filepath.Join(f.dir, "custom")
	require.NoError(t, os.MkdirAll(folder, 0755))

	f.prompter.Picks = []int{2}
	f.prompter.Folders = []string{folder}
	require.NoError(t, f.mgr.ChangeLocation(context.Background()))

	assert.Equal(t, storage.ModeCustom, f.mgr.Locator().Mode())
	assert.Equal(t, folder, f.store.Get(config.KeyCustomFolder))
	assert.Equal(t, 1, f.changes)
}

func TestChangeLocation_CustomDeclinedWithoutFolder(t *testing.T) {
	f := newFixture(t)

	f.prompter.Picks = []int{2}
	require.NoError(t, f.mgr.ChangeLocation(context.Background()))

	assert.Equal(t, storage.ModeWorkspace, f.mgr.Locator().Mode())
	assert.Equal(t, 0, f.changes)
}

func TestChangeLocation_WorkspaceWithSeveralRoots(t *testing.T) {
	f := newFixture(t)
	other := filepath.Join(f.dir, "other")
	require.NoError(t, os.MkdirAll(other, 0755))
	f.rebuild([]string{f.root, other})

	f.prompter.Picks = []int{0, 1}
	require.NoError(t, f.mgr.ChangeLocation(context.Background()))

	assert.Equal(t, other, f.store.Get(config.KeyWorkspaceFolder))
}

func TestChangeLocation_Dismissed(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.mgr.ChangeLocation(context.Background()))
	assert.Equal(t, 0, f.changes)
	require.Len(t, f.prompter.PickItems, 1)
	assert.Equal(t, "workspace (current)", f.prompter.PickItems[0][0].Description)
}

func TestOpenFile(t *testing.T) {
	f := newFixture(t)

	err := f.mgr.OpenFile(context.Background(), session.Tab{
		URI: "file:///src/a.go", ViewColumn: 2, Cursor: &session.Cursor{Line: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"focus:file:///src/a.go"}, f.wb.Ops)
	pos, ok := f.mgr.Tracker().Get("file:///src/a.go")
	require.True(t, ok)
	assert.Equal(t, 3, pos.Line)
}

func TestOpenFile_AlreadyOpenKeepsCursor(t *testing.T) {
	f := newFixture(t)
	f.wb.KeepOpenCursor = true
	ctx := context.Background()

	require.NoError(t, f.mgr.OpenFile(ctx, session.Tab{
		URI: "file:///src/a.go", ViewColumn: 1, Cursor: &session.Cursor{Line: 3},
	}))
	require.NoError(t, f.mgr.OpenFile(ctx, session.Tab{
		URI: "file:///src/a.go", ViewColumn: 1, Cursor: &session.Cursor{Line: 40},
	}))

	pos, ok := f.mgr.Tracker().Get("file:///src/a.go")
	require.True(t, ok)
	assert.Equal(t, 3, pos.Line)
}

func TestLookup_SanitizesName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir, ok, err := f.mgr.Locator().Resolve(ctx, storage.ResolveOptions{Create: true})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, os.WriteFile(storage.PathFor(dir, "a_b"), []byte(`{"version":2,"tabs":[]}`), 0644))

	f.prompter.Choices = []string{"Delete"}
	require.NoError(t, f.mgr.Delete(ctx, NameRef("a/b")))
	assert.NoFileExists(t, storage.PathFor(dir, "a_b"))
}
