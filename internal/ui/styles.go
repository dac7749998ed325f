package ui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("240")).Foreground(lipgloss.Color("229"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	confirmStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	choiceStyle   = lipgloss.NewStyle().Padding(0, 1)
	activeChoice  = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("212")).Foreground(lipgloss.Color("230"))
)

// fixedWidth ensures a string is exactly the given width (truncate or pad)
func fixedWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	if len(runes) < width {
		return s + strings.Repeat(" ", width-len(runes))
	}
	return s
}

// expandPath expands a leading ~ and makes the path absolute.
func expandPath(input string) string {
	input = strings.TrimSpace(input)
	if input == "~" || strings.HasPrefix(input, "~/") {
		home, _ := os.UserHomeDir()
		input = filepath.Join(home, strings.TrimPrefix(input[1:], "/"))
	}
	if abs, err := filepath.Abs(input); err == nil {
		return abs
	}
	return input
}
