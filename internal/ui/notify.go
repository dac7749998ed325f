package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Notifier prints user-facing messages, one per line.
type Notifier struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

// NewNotifier creates a Notifier writing to out, or stderr when out is nil.
func NewNotifier(out io.Writer) *Notifier {
	if out == nil {
		out = os.Stderr
	}
	return &Notifier{out: out}
}

func (n *Notifier) Info(msg string)  { n.print(infoStyle, msg) }
func (n *Notifier) Warn(msg string)  { n.print(warnStyle, msg) }
func (n *Notifier) Error(msg string) { n.print(confirmStyle, msg) }

// Last returns the most recent message.
func (n *Notifier) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

func (n *Notifier) print(style lipgloss.Style, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = msg
	fmt.Fprintln(n.out, style.Render(msg))
}
