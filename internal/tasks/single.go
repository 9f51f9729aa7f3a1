package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
)

// Start starts one task and watches it until it settles.
func (e *Engine) Start(ctx context.Context, id int64) error {
	if err := e.confirm(ctx, fmt.Sprintf("Start task %d?", id)); err != nil {
		return err
	}

	if err := e.api.Start(ctx, id); err != nil {
		return e.fail(ctx, ActionStart, []int64{id}, err)
	}

	e.logger.Info("task started", "task_id", id)
	_ = e.Reload(ctx)
	e.Watch(id)
	e.notify(ctx, startedNotice(id))
	return nil
}

// Delete deletes one task. The row is dropped from the store without a reload.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if err := e.confirm(ctx, fmt.Sprintf("Delete task %d?", id)); err != nil {
		return err
	}

	if err := e.api.Delete(ctx, id); err != nil {
		return e.fail(ctx, ActionDelete, []int64{id}, err)
	}

	e.logger.Info("task deleted", "task_id", id)
	e.scheduler.Cancel(id)
	e.store.Remove(id)
	e.notify(ctx, deletedNotice(id))
	return nil
}

// Create creates one task. Name and url are trimmed and must not be empty.
func (e *Engine) Create(ctx context.Context, task models.NewTask) error {
	task.Name = strings.TrimSpace(task.Name)
	task.URL = strings.TrimSpace(task.URL)
	if err := task.Validate(); err != nil {
		return e.reject(ctx, ActionCreate, shared.ErrInvalidInput, err.Error())
	}

	if err := e.api.Create(ctx, task); err != nil {
		return e.fail(ctx, ActionCreate, nil, err)
	}

	e.logger.Info("task created", "name", task.Name)
	e.presenter.CloseForm()
	_ = e.Reload(ctx)
	e.notify(ctx, createdNotice(task.Name))
	return nil
}
