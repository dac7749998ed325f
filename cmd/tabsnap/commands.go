package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jh3/tabsnap/internal/commands"
	apperr "github.com/jh3/tabsnap/internal/errors"
	"github.com/jh3/tabsnap/internal/restore"
	"github.com/jh3/tabsnap/internal/session"
	"github.com/jh3/tabsnap/internal/storage"
	"github.com/jh3/tabsnap/internal/tmux"
	"github.com/jh3/tabsnap/internal/ui"
)

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "tabsnap",
		Short: "Save and restore the files open in a tmux editor workbench",
		Long: `tabsnap saves the files open in a tmux session as a named session and
brings them back later: same windows, same pane order, same cursor lines.

Sessions are stored as JSON files in the workspace (.tabsnap/sessions), in
tabsnap's data directory, or in a folder of your choice.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVarP(&opts.workspaces, "workspace", "w", nil, "Workspace folder (repeatable, default: current directory)")
	root.PersistentFlags().StringVar(&opts.tmuxSession, "tmux-session", "", "tmux session used as the workbench")

	root.AddCommand(
		hostCmd(opts, "save", "Save the open files as a new session", cobra.NoArgs,
			func(ctx context.Context, a *app, args []string) error {
				return a.mgr.Save(ctx)
			}),
		hostCmd(opts, "restore", "Pick a session and restore it", cobra.NoArgs,
			func(ctx context.Context, a *app, args []string) error {
				out, err := a.mgr.Restore(ctx)
				if out == restore.Completed {
					a.focus()
				}
				return err
			}),
		hostCmd(opts, "restore-named [name]", "Restore a session, offering to save the current one first", cobra.MaximumNArgs(1),
			func(ctx context.Context, a *app, args []string) error {
				out, err := a.mgr.RestoreNamed(ctx, ref(args))
				if out == restore.Completed {
					a.focus()
				}
				return err
			}),
		hostCmd(opts, "overwrite [name]", "Replace a session with the open files", cobra.MaximumNArgs(1),
			func(ctx context.Context, a *app, args []string) error {
				return a.mgr.Overwrite(ctx, ref(args))
			}),
		storeCmd(opts, "delete [name]", "Delete a session", cobra.MaximumNArgs(1),
			func(ctx context.Context, a *app, args []string) error {
				return a.mgr.Delete(ctx, ref(args))
			}),
		storeCmd(opts, "delete-all", "Delete every session in the current location", cobra.NoArgs,
			func(ctx context.Context, a *app, args []string) error {
				return a.mgr.DeleteAll(ctx)
			}),
		storeCmd(opts, "location", "Change where sessions are stored", cobra.NoArgs,
			func(ctx context.Context, a *app, args []string) error {
				return a.mgr.ChangeLocation(ctx)
			}),
		storeCmd(opts, "list", "Print the stored sessions (for scripting)", cobra.NoArgs, runList),
		storeCmd(opts, "files <name>", "Print the files of a session", cobra.ExactArgs(1), runFiles),
		hostCmd(opts, "sidebar", "Browse sessions in an interactive tree", cobra.NoArgs,
			func(ctx context.Context, a *app, args []string) error {
				return ui.RunSidebar(ctx, a.mgr, ui.SidebarOptions{Status: a.notifier.Last, Notifier: a.notifier, Logger: a.log})
			}),
		newOpenCmd(opts),
	)
	return root
}

type runFunc func(ctx context.Context, a *app, args []string) error

// hostCmd builds a command that drives the tmux workbench.
func hostCmd(opts *rootOptions, use, short string, args cobra.PositionalArgs, fn runFunc) *cobra.Command {
	return appCmd(opts, use, short, args, true, fn)
}

// storeCmd builds a command that only touches stored sessions.
func storeCmd(opts *rootOptions, use, short string, args cobra.PositionalArgs, fn runFunc) *cobra.Command {
	return appCmd(opts, use, short, args, false, fn)
}

func appCmd(opts *rootOptions, use, short string, args cobra.PositionalArgs, withHost bool, fn runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *opts, withHost)
			if err != nil {
				return err
			}
			defer a.close(ctx)
			return fn(ctx, a, args)
		},
	}
}

func ref(args []string) commands.Ref {
	if len(args) == 0 {
		return commands.Ref{}
	}
	return commands.NameRef(args[0])
}

// requireLocation fails when the current storage mode has no folder, so
// scripts see a non-zero exit instead of an empty listing.
func requireLocation(ctx context.Context, a *app) error {
	loc := a.mgr.Locator()
	_, ok, err := loc.Resolve(ctx, storage.ResolveOptions{})
	if err != nil {
		return err
	}
	if !ok {
		return apperr.LocationUnresolved(string(loc.Mode()))
	}
	return nil
}

func runList(ctx context.Context, a *app, args []string) error {
	if err := requireLocation(ctx, a); err != nil {
		return err
	}
	records, err := a.mgr.List(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%s|%s\n", r.Name, r.Path)
	}
	return nil
}

func runFiles(ctx context.Context, a *app, args []string) error {
	if err := requireLocation(ctx, a); err != nil {
		return err
	}
	rec, ok, err := a.mgr.Locator().Find(ctx, args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %q not found", args[0])
	}
	doc, err := session.Load(rec.Path)
	if err != nil {
		return err
	}
	for _, line := range formatFiles(doc) {
		fmt.Println(line)
	}
	return nil
}

// formatFiles renders one line per tab: position, uri and cursor, 1-based.
func formatFiles(doc session.Document) []string {
	lines := make([]string, 0, len(doc.Tabs))
	for _, t := range doc.Tabs {
		var flags []string
		if t.IsGroupActive {
			flags = append(flags, "active")
		}
		if t.IsGlobalActive {
			flags = append(flags, "focused")
		}
		cur := "-"
		if t.Cursor != nil {
			cur = fmt.Sprintf("%d:%d", t.Cursor.Line+1, t.Cursor.Character+1)
		}
		lines = append(lines, fmt.Sprintf("%d|%d|%s|%s|%s",
			t.GroupIndex+1, t.TabIndex+1, t.URI, cur, strings.Join(flags, ",")))
	}
	return lines
}

func newOpenCmd(opts *rootOptions) *cobra.Command {
	var column, line, col int
	cmd := hostCmd(opts, "open <uri|path>", "Open one file in the workbench", cobra.ExactArgs(1),
		func(ctx context.Context, a *app, args []string) error {
			uri := args[0]
			if !strings.Contains(uri, "://") {
				u, err := tmux.PathToURI(uri)
				if err != nil {
					return err
				}
				uri = u
			}
			tab := session.Tab{URI: uri, ViewColumn: column}
			if line > 0 {
				tab.Cursor = &session.Cursor{Line: line - 1, Character: max(col-1, 0)}
			}
			if err := a.mgr.OpenFile(ctx, tab); err != nil {
				return err
			}
			a.focus()
			return nil
		})
	cmd.Flags().IntVar(&column, "column", 1, "Window (view column) to open the file in")
	cmd.Flags().IntVar(&line, "line", 0, "Line to place the cursor on (1-based)")
	cmd.Flags().IntVar(&col, "col", 1, "Column to place the cursor on (1-based)")
	return cmd
}
