package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/shared"
	"github.com/desertthunder/gaelon/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil {
		return fmt.Errorf("%w: session not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	closeLog, err := shared.LogToFile(r.logger, cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closeLog()

	model := ui.NewModel(ctx, ui.SessionLoader(r.session), dashboard.DefaultLoadOptions())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
