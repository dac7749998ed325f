package tmux

import (
	"fmt"

	"github.com/GianlucaP106/gotmux/gotmux"

	apperr "github.com/jh3/tabsnap/internal/errors"
)

// control performs the pane and window operations gotmux has typed
// methods for. Commands that need a shell command or a custom format, such
// as new-window, respawn-pane and list-panes, go through the Runner.
type control interface {
	SendKeys(paneID string, keys []string) error
	SelectPane(paneID string) error
	KillPane(paneID string) error
	SelectWindow(windowID string) error
	KillWindow(windowID string) error
}

// gotmuxControl looks panes and windows up on the server and uses their
// methods.
type gotmuxControl struct {
	t *gotmux.Tmux
}

func (c gotmuxControl) pane(op, id string) (*gotmux.Pane, error) {
	p, err := c.t.GetPaneById(id)
	if err != nil {
		return nil, apperr.HostCommandFailed(apperr.Op(op), "list panes", err)
	}
	if p == nil {
		return nil, apperr.HostCommandFailed(apperr.Op(op), fmt.Sprintf("pane %s not found", id), nil)
	}
	return p, nil
}

func (c gotmuxControl) window(op, id string) (*gotmux.Window, error) {
	w, err := c.t.GetWindowById(id)
	if err != nil {
		return nil, apperr.HostCommandFailed(apperr.Op(op), "list windows", err)
	}
	if w == nil {
		return nil, apperr.HostCommandFailed(apperr.Op(op), fmt.Sprintf("window %s not found", id), nil)
	}
	return w, nil
}

func (c gotmuxControl) SendKeys(paneID string, keys []string) error {
	p, err := c.pane("tmux.send-keys", paneID)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := p.SendKeys(k); err != nil {
			return apperr.HostCommandFailed("tmux.send-keys", k, err)
		}
	}
	return nil
}

func (c gotmuxControl) SelectPane(paneID string) error {
	p, err := c.pane("tmux.select-pane", paneID)
	if err != nil {
		return err
	}
	if err := p.Select(); err != nil {
		return apperr.HostCommandFailed("tmux.select-pane", paneID, err)
	}
	return nil
}

func (c gotmuxControl) KillPane(paneID string) error {
	p, err := c.pane("tmux.kill-pane", paneID)
	if err != nil {
		return err
	}
	if err := p.Kill(); err != nil {
		return apperr.HostCommandFailed("tmux.kill-pane", paneID, err)
	}
	return nil
}

func (c gotmuxControl) SelectWindow(windowID string) error {
	w, err := c.window("tmux.select-window", windowID)
	if err != nil {
		return err
	}
	if err := w.Select(); err != nil {
		return apperr.HostCommandFailed("tmux.select-window", windowID, err)
	}
	return nil
}

func (c gotmuxControl) KillWindow(windowID string) error {
	w, err := c.window("tmux.kill-window", windowID)
	if err != nil {
		return err
	}
	if err := w.Kill(); err != nil {
		return apperr.HostCommandFailed("tmux.kill-window", windowID, err)
	}
	return nil
}

// runnerControl issues the same operations as plain commands.
type runnerControl struct {
	w *Workbench
}

func (c runnerControl) SendKeys(paneID string, keys []string) error {
	_, err := c.w.run(append([]string{"send-keys", "-t", paneID}, keys...)...)
	return err
}

func (c runnerControl) SelectPane(paneID string) error {
	_, err := c.w.run("select-pane", "-t", paneID)
	return err
}

func (c runnerControl) KillPane(paneID string) error {
	_, err := c.w.run("kill-pane", "-t", paneID)
	return err
}

func (c runnerControl) SelectWindow(windowID string) error {
	_, err := c.w.run("select-window", "-t", windowID)
	return err
}

func (c runnerControl) KillWindow(windowID string) error {
	_, err := c.w.run("kill-window", "-t", windowID)
	return err
}
