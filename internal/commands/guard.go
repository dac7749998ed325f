package commands

import (
	"context"
	"fmt"

	"github.com/jh3/tabsnap/internal/config"
)

// SavePolicy decides whether restoring a named session first saves the
// current layout.
type SavePolicy string

const (
	PolicyAsk SavePolicy = "ask"
	PolicyYes SavePolicy = "yes"
	PolicyNo  SavePolicy = "no"
)

// ParseSavePolicy maps a setting value to a policy, defaulting to ask.
func ParseSavePolicy(s string) SavePolicy {
	switch SavePolicy(s) {
	case PolicyYes, PolicyNo:
		return SavePolicy(s)
	default:
		return PolicyAsk
	}
}

// Choices offered by the save-before-switch prompts.
const (
	ChoiceSaveAndSwitch = "Save and Switch"
	ChoiceSwitch        = "Switch"
	ChoiceSaveFiles     = "Save Files"
	ChoiceContinue      = "Continue"
	ChoiceCancel        = "Cancel"
)

// saveBeforeSwitch reports whether the restore should go ahead.
func (m *Manager) saveBeforeSwitch(ctx context.Context) (bool, error) {
	docs, err := m.wb.Documents(ctx)
	if err != nil {
		return false, err
	}
	named := 0
	for _, d := range docs {
		if !d.Untitled {
			named++
		}
	}
	if named == 0 {
		return true, nil
	}

	switch ParseSavePolicy(m.settings.Get(config.KeySaveBeforeRestore)) {
	case PolicyNo:
		return true, nil
	case PolicyYes:
		return m.saveCurrent(ctx)
	}

	choice, err := m.prompter.Choose(ctx, "Save the open tabs as a session before switching?",
		ChoiceSaveAndSwitch, ChoiceSwitch, ChoiceCancel)
	if err != nil {
		return false, err
	}
	switch choice {
	case ChoiceSaveAndSwitch:
		return m.saveCurrent(ctx)
	case ChoiceSwitch:
		return true, nil
	default:
		return false, nil
	}
}

func (m *Manager) saveCurrent(ctx context.Context) (bool, error) {
	docs, err := m.wb.Documents(ctx)
	if err != nil {
		return false, err
	}
	dirty := 0
	for _, d := range docs {
		if d.Dirty {
			dirty++
		}
	}
	if dirty > 0 {
		choice, err := m.prompter.Choose(ctx, fmt.Sprintf("%d file(s) have unsaved changes.", dirty),
			ChoiceSaveFiles, ChoiceContinue, ChoiceCancel)
		if err != nil {
			return false, err
		}
		switch choice {
		case ChoiceSaveFiles:
			if err := m.wb.SaveAll(ctx); err != nil {
				return false, err
			}
		case ChoiceContinue:
		default:
			return false, nil
		}
	}

	dir, ok, err := m.resolveDir(ctx)
	if err != nil || !ok {
		return false, err
	}
	name, err := m.askName(ctx)
	if err != nil || name == "" {
		return false, err
	}
	res, err := m.saveAs(ctx, dir, name, true)
	if err != nil {
		return false, err
	}
	return res != declined, nil
}
