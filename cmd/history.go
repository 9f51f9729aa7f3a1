package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/taskdeck/internal/formatter"
	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/repositories"
	"github.com/desertthunder/taskdeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

// History prints the most recent journal entries, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, err := r.openJournal()
	if err != nil {
		return err
	}

	limit := cmd.Int("limit")
	if limit <= 0 {
		limit = repositories.DefaultHistoryLimit
	}

	var notices []models.Notice
	if action := cmd.String("action"); action != "" {
		notices, err = repo.ListByAction(ctx, action, limit)
	} else {
		notices, err = repo.List(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	return formatter.WriteNotices(r.output, format, notices)
}

// HistoryClear removes every journal entry after confirmation.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.openJournal()
	if err != nil {
		return err
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count history: %w", err)
	}
	if count == 0 {
		return r.writePlain("History is empty.\n")
	}

	ok, err := r.newPresenter(cmd).Confirm(ctx, fmt.Sprintf("Clear %d history entries?", count))
	if err != nil {
		return err
	}
	if !ok {
		return tasks.ErrAborted
	}

	removed, err := repo.Clear(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	r.logger.Info("history cleared", "removed", removed)
	return r.writePlain("Removed %d history entries.\n", removed)
}
