package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	apperr "github.com/jh3/tabsnap/internal/errors"
	"github.com/jh3/tabsnap/internal/host"
)

var _ host.Prompter = (*Prompter)(nil)

// RunFunc runs a bubbletea model until it quits and returns the final model.
type RunFunc func(ctx context.Context, m tea.Model) (tea.Model, error)

// Prompter asks questions in the terminal. Dismissed prompts return the
// empty answer without an error.
type Prompter struct {
	out  io.Writer
	run  RunFunc
	find FindFunc
}

// NewPrompter creates a Prompter drawing on out, or stderr when out is nil.
func NewPrompter(out io.Writer) *Prompter {
	if out == nil {
		out = os.Stderr
	}
	p := &Prompter{out: out, find: fzfFind}
	p.run = p.runProgram
	return p
}

func (p *Prompter) runProgram(ctx context.Context, m tea.Model) (tea.Model, error) {
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(p.out))
	final, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil, apperr.Cancelled("ui.Prompt")
	}
	return final, err
}

// Choose shows message with one button per choice.
func (p *Prompter) Choose(ctx context.Context, message string, choices ...string) (string, error) {
	final, err := p.run(ctx, newChoiceModel(message, choices))
	if err != nil {
		return "", err
	}
	return final.(choiceModel).result, nil
}

// Pick shows a fuzzy finder over items and returns the picked index, or -1.
func (p *Prompter) Pick(ctx context.Context, title string, items []host.Item) (int, error) {
	if len(items) == 0 {
		return -1, nil
	}
	return p.find(ctx, title, items)
}

// Input asks for a line of text. validate returns a message for values that
// cannot be accepted.
func (p *Prompter) Input(ctx context.Context, prompt, value string, validate func(string) string) (string, error) {
	final, err := p.run(ctx, newInputModel(prompt, value, validate))
	if err != nil {
		return "", err
	}
	return final.(inputModel).result, nil
}

// PickFolder asks for an existing folder. ~ is expanded and the result is
// absolute.
func (p *Prompter) PickFolder(ctx context.Context, title string) (string, error) {
	validate := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "Enter a folder path."
		}
		info, err := os.Stat(expandPath(s))
		if err != nil || !info.IsDir() {
			return fmt.Sprintf("%s is not a folder.", expandPath(s))
		}
		return ""
	}
	m := newInputModel(title, "~/", validate)
	m.input.Placeholder = "Path (e.g. ~/sessions)..."
	final, err := p.run(ctx, m)
	if err != nil {
		return "", err
	}
	res := final.(inputModel).result
	if res == "" {
		return "", nil
	}
	return expandPath(res), nil
}

// choiceModel is a modal question with a row of buttons.
type choiceModel struct {
	message string
	choices []string
	cursor  int
	result  string
	done    bool
}

func newChoiceModel(message string, choices []string) choiceModel {
	return choiceModel{message: message, choices: choices}
}

func (m choiceModel) Init() tea.Cmd {
	return nil
}

func (m choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.done = true
		return m, tea.Quit
	case "left", "h", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
		}
	case "right", "l", "tab":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.choices) > 0 {
			m.result = m.choices[m.cursor]
		}
		m.done = true
		return m, tea.Quit
	default:
		if n, err := strconv.Atoi(key.String()); err == nil && n >= 1 && n <= len(m.choices) {
			m.result = m.choices[n-1]
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m choiceModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.message))
	b.WriteString("\n\n")
	for i, c := range m.choices {
		label := fmt.Sprintf("%d %s", i+1, c)
		if i == m.cursor {
			b.WriteString(activeChoice.Render(label))
		} else {
			b.WriteString(choiceStyle.Render(label))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("←/→: move • enter: choose • esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// inputModel is a single line input box.
type inputModel struct {
	prompt   string
	input    textinput.Model
	validate func(string) string
	problem  string
	result   string
	done     bool
}

func newInputModel(prompt, value string, validate func(string) string) inputModel {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 50
	ti.SetValue(value)
	ti.CursorEnd()
	return inputModel{prompt: prompt, input: ti, validate: validate}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		case "enter":
			value := m.input.Value()
			if m.validate != nil {
				if problem := m.validate(value); problem != "" {
					m.problem = problem
					return m, nil
				}
			}
			m.result = value
			m.done = true
			return m, tea.Quit
		}
		m.problem = ""
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.prompt))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.problem != "" {
		b.WriteString(confirmStyle.Render(m.problem))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("enter: confirm • esc: cancel"))
	b.WriteString("\n")
	return b.String()
}
