package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	apperr "github.com/jh3/tabsnap/internal/errors"
	"github.com/jh3/tabsnap/internal/host"
	"github.com/jh3/tabsnap/internal/sidebar"
)

// Dispatcher provides the sidebar tree and runs node commands.
type Dispatcher interface {
	Tree() *sidebar.Tree
	Dispatch(ctx context.Context, n sidebar.Node) error
}

// SidebarOptions configure RunSidebar.
type SidebarOptions struct {
	Run    RunFunc
	Status func() string
	// Notifier reports failed commands. Without one they are only logged.
	Notifier host.Notifier
	Logger   *zap.Logger
}

// RunSidebar shows the session tree until the user quits. Selecting a node
// with a command leaves the tree, runs the command and shows the tree again
// with the same rows expanded. A failed command is reported and the tree
// stays usable; only cancellation ends the loop.
func RunSidebar(ctx context.Context, d Dispatcher, opts SidebarOptions) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	run := opts.Run
	if run == nil {
		run = func(ctx context.Context, m tea.Model) (tea.Model, error) {
			return tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
		}
	}

	expanded := make(map[string]bool)
	cursor := ""
	for {
		m := newSidebarModel(ctx, d.Tree(), expanded, cursor)
		if opts.Status != nil {
			m.status = opts.Status()
		}
		final, err := run(ctx, m)
		if err != nil {
			return err
		}
		sm := final.(sidebarModel)
		if sm.err != nil {
			return sm.err
		}
		if sm.selected == nil {
			return nil
		}
		expanded, cursor = sm.expanded, sm.cursorKey()

		if err := d.Dispatch(ctx, *sm.selected); err != nil {
			if apperr.Is(err, apperr.KindCancelled) || ctx.Err() != nil {
				return err
			}
			log.Warn("sidebar command failed", zap.String("action", string(sm.selected.Action)), zap.Error(err))
			if opts.Notifier != nil {
				opts.Notifier.Error(fmt.Sprintf("%s failed: %v", sm.selected.Label, err))
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// row is one visible line of the tree.
type row struct {
	node  sidebar.Node
	depth int
	key   string
}

type sidebarModel struct {
	ctx      context.Context
	tree     *sidebar.Tree
	expanded map[string]bool
	rows     []row
	cursor   int
	width    int
	height   int
	status   string
	selected *sidebar.Node
	err      error
	quitting bool
}

func newSidebarModel(ctx context.Context, tree *sidebar.Tree, expanded map[string]bool, cursorKey string) sidebarModel {
	m := sidebarModel{
		ctx:      ctx,
		tree:     tree,
		expanded: expanded,
		width:    80,
		height:   24,
	}
	m.refresh()
	for i, r := range m.rows {
		if r.key == cursorKey {
			m.cursor = i
			break
		}
	}
	return m
}

// nodeKey identifies a node across refreshes.
func nodeKey(parent string, n sidebar.Node) string {
	return fmt.Sprintf("%s/%d:%s:%s", parent, n.Kind, n.Label, n.Record.Path)
}

func (m *sidebarModel) refresh() {
	roots, err := m.tree.Roots(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	m.rows = nil
	m.appendRows(roots, "", 0)
	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
}

func (m *sidebarModel) appendRows(nodes []sidebar.Node, parent string, depth int) {
	for _, n := range nodes {
		key := nodeKey(parent, n)
		m.rows = append(m.rows, row{node: n, depth: depth, key: key})
		if !n.Expandable || !m.expanded[key] {
			continue
		}
		children, err := m.tree.Children(m.ctx, n)
		if err != nil {
			continue
		}
		m.appendRows(children, key, depth+1)
	}
}

func (m sidebarModel) cursorKey() string {
	if m.cursor < len(m.rows) {
		return m.rows[m.cursor].key
	}
	return ""
}

func (m sidebarModel) Init() tea.Cmd {
	return nil
}

func (m sidebarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit

		case "up", "k", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j", "ctrl+n":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}

		case "home":
			m.cursor = 0

		case "end":
			m.cursor = max(0, len(m.rows)-1)

		case "right", "l":
			m.setExpanded(true)

		case "left", "h":
			m.collapseOrParent()

		case "r":
			m.refresh()

		case "enter", " ":
			if len(m.rows) == 0 {
				return m, nil
			}
			r := m.rows[m.cursor]
			if r.node.Expandable {
				m.setExpanded(!m.expanded[r.key])
				return m, nil
			}
			if r.node.Action != sidebar.ActionNone {
				n := r.node
				m.selected = &n
				m.quitting = true
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m *sidebarModel) setExpanded(open bool) {
	if len(m.rows) == 0 {
		return
	}
	r := m.rows[m.cursor]
	if !r.node.Expandable {
		return
	}
	if open {
		m.expanded[r.key] = true
	} else {
		delete(m.expanded, r.key)
	}
	m.refresh()
}

func (m *sidebarModel) collapseOrParent() {
	if len(m.rows) == 0 {
		return
	}
	r := m.rows[m.cursor]
	if r.node.Expandable && m.expanded[r.key] {
		m.setExpanded(false)
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].depth < r.depth {
			m.cursor = i
			return
		}
	}
}

func (m sidebarModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sessions"))
	b.WriteString("\n\n")

	listHeight := max(1, m.height-7)
	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	for i := start; i < len(m.rows) && i < start+listHeight; i++ {
		r := m.rows[i]
		line := strings.Repeat("  ", r.depth) + marker(r, m.expanded) + r.node.Label
		if r.node.Description != "" {
			line += "  " + r.node.Description
		}
		line = fixedWidth(line, m.width-2)

		switch {
		case i == m.cursor:
			line = cursorStyle.Render("> ") + selectedStyle.Render(line)
		case r.node.Kind == sidebar.KindInfo:
			line = "  " + dimStyle.Render(line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.cursor < len(m.rows) && m.rows[m.cursor].node.Tooltip != "" {
		b.WriteString(dimStyle.Render(m.rows[m.cursor].node.Tooltip))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(infoStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("enter: run/expand • ←/→: collapse/expand • r: refresh • q: quit"))
	return b.String()
}

func marker(r row, expanded map[string]bool) string {
	switch {
	case !r.node.Expandable:
		return "  "
	case expanded[r.key]:
		return "▾ "
	default:
		return "▸ "
	}
}
