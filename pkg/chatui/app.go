package chatui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
)

// Run starts the terminal chat and blocks until the user quits or ctx ends.
func Run(ctx context.Context, title string, sender Sender, bridge *Bridge) error {
	m := NewModel(title, sender, bridge)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "running TUI")
	}

	return nil
}
