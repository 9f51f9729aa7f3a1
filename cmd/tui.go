package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/taskdeck/internal/shared"
	"github.com/desertthunder/taskdeck/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive task board.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bridge := ui.NewBridge()
	engine := r.newEngine(bridge)
	defer engine.Close()
	engine.Store().OnChange(bridge.TasksChanged)

	p := tea.NewProgram(ui.NewModel(ctx, engine), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
