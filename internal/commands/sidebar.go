package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jh3/tabsnap/internal/sidebar"
)

// Describe reports the current storage location.
func (m *Manager) Describe(ctx context.Context) string {
	return m.locator.Describe(ctx)
}

// Tree returns the sidebar tree over the current storage location.
func (m *Manager) Tree() *sidebar.Tree {
	return sidebar.New(m, m.Load)
}

// Dispatch runs the command behind a sidebar node.
func (m *Manager) Dispatch(ctx context.Context, n sidebar.Node) error {
	m.log.Debug("sidebar action", zap.String("action", string(n.Action)), zap.String("label", n.Label))

	switch n.Action {
	case sidebar.ActionSave:
		return m.Save(ctx)
	case sidebar.ActionChangeLocation:
		return m.ChangeLocation(ctx)
	case sidebar.ActionDeleteAll:
		return m.DeleteAll(ctx)
	case sidebar.ActionRestore:
		_, err := m.RestoreNamed(ctx, RecordRef(n.Record))
		return err
	case sidebar.ActionOverwrite:
		return m.Overwrite(ctx, RecordRef(n.Record))
	case sidebar.ActionDelete:
		return m.Delete(ctx, RecordRef(n.Record))
	case sidebar.ActionOpenFile:
		return m.OpenFile(ctx, n.Tab)
	}
	return nil
}
