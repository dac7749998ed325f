package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jh3/tabsnap/internal/commands"
	"github.com/jh3/tabsnap/internal/config"
	"github.com/jh3/tabsnap/internal/cursor"
	"github.com/jh3/tabsnap/internal/logging"
	"github.com/jh3/tabsnap/internal/storage"
	"github.com/jh3/tabsnap/internal/tmux"
	"github.com/jh3/tabsnap/internal/ui"
)

// rootOptions are the persistent flags.
type rootOptions struct {
	workspaces  []string
	tmuxSession string
}

// app holds everything one command invocation needs.
type app struct {
	log      *zap.Logger
	tracker  *cursor.Tracker
	wb       *tmux.Workbench
	notifier *ui.Notifier
	mgr      *commands.Manager
}

// newApp wires the manager. The tmux workbench is only started when
// withHost is set; listing commands work without it.
func newApp(ctx context.Context, opts rootOptions, withHost bool) (*app, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	log := logging.NewOrNop(logging.Config{
		Level:       env.LogLevel,
		Development: env.LogDev,
		OutputPaths: []string{env.LogPath()},
	})

	roots, err := workspaceRoots(opts.workspaces)
	if err != nil {
		return nil, err
	}
	store, err := config.Load(env.ConfigPath(), roots[0])
	if err != nil {
		return nil, err
	}

	a := &app{
		log:      log,
		tracker:  cursor.Open(env.CacheDir()),
		notifier: ui.NewNotifier(os.Stderr),
	}
	prompter := ui.NewPrompter(os.Stderr)

	mopts := commands.Options{
		Locator:  storage.NewLocator(store, roots, env.DataDir(), prompter, log),
		Settings: store,
		Tracker:  a.tracker,
		Prompter: prompter,
		Notifier: a.notifier,
		Logger:   log,
	}

	if withHost {
		tm := store.Tmux()
		if opts.tmuxSession != "" {
			tm.Session = opts.tmuxSession
		}
		editor := tm.Editor
		if editor == config.DefaultSettings().Tmux.Editor {
			editor = env.EditorCommand(editor)
		}
		a.wb, err = tmux.New(tmux.Options{
			Session:  tm.Session,
			Dir:      roots[0],
			Editor:   editor,
			SaveKeys: tm.SaveKeys,
			Logger:   log,
		})
		if err != nil {
			return nil, err
		}
		mopts.Workbench = a.wb
	}

	a.mgr = commands.New(mopts)
	if a.wb != nil {
		if err := a.mgr.SyncCursors(ctx); err != nil {
			log.Debug("initial cursor sync failed", zap.Error(err))
		}
	}
	log.Debug("started",
		zap.Strings("roots", roots),
		zap.String("mode", string(mopts.Locator.Mode())),
		zap.Bool("host", withHost))
	return a, nil
}

// close forgets cursors of files that are no longer open and persists the
// tracker.
func (a *app) close(ctx context.Context) {
	if a.wb != nil {
		if docs, err := a.wb.Documents(ctx); err == nil {
			open := make(map[string]bool, len(docs))
			for _, d := range docs {
				open[d.URI] = true
			}
			a.tracker.Prune(open)
		}
	}
	if err := a.tracker.Save(); err != nil {
		a.log.Warn("saving cursor state failed", zap.Error(err))
	}
	_ = a.log.Sync()
}

// focus brings the workbench session to the front when running inside tmux,
// and tells the user how to attach otherwise.
func (a *app) focus() {
	if a.wb == nil {
		return
	}
	if tmux.IsInsideTmux() {
		if err := a.wb.SwitchTo(); err != nil {
			a.log.Warn("switching tmux client failed", zap.Error(err))
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Attach with: tmux attach -t %s\n", a.wb.Session())
}

func workspaceRoots(flags []string) ([]string, error) {
	if len(flags) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		flags = []string{cwd}
	}
	roots := make([]string, 0, len(flags))
	for _, f := range flags {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		roots = append(roots, abs)
	}
	return roots, nil
}
