package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dshills/byteme/internal/analysis"
)

// Run starts the program and feeds it every orchestrator transition until
// the user quits or ctx is cancelled.
func Run(ctx context.Context, orch *analysis.Orchestrator, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(New(orch), opts...)

	unsubscribe := orch.Subscribe(func(st analysis.State) {
		p.Send(StateMsg(st))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui.Run: %w", err)
	}
	return nil
}
