package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
	"github.com/desertthunder/taskdeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

var _ tasks.Presenter = (*consolePresenter)(nil)

// consolePresenter asks confirmations on the terminal and reports notices through the logger.
type consolePresenter struct {
	mu     sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	yes    bool
	logger *log.Logger
}

func (r *Runner) newPresenter(cmd *cli.Command) *consolePresenter {
	return &consolePresenter{
		in:     bufio.NewReader(r.input),
		out:    r.output,
		yes:    r.yes || cmd.Bool("yes"),
		logger: r.logger,
	}
}

// Confirm reads one line. Only "y" and "yes" proceed; end of input declines.
func (p *consolePresenter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if p.yes {
		p.logger.Debug("confirmed by --yes", "prompt", prompt)
		return true, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(p.out, "%s [y/N]: ", prompt); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *consolePresenter) Notify(n models.Notice) {
	kv := []any{"action", n.Action}
	if len(n.TaskIDs) > 0 {
		kv = append(kv, "task_ids", shared.FormatIDs(n.TaskIDs))
	}

	switch n.Level {
	case models.LevelError:
		p.logger.Error(n.Message, kv...)
	case models.LevelWarn:
		p.logger.Warn(n.Message, kv...)
	default:
		p.logger.Info(n.Message, kv...)
	}
}

// CloseForm is a no-op; the CLI has no form.
func (p *consolePresenter) CloseForm() {}
