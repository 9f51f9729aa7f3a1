package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
)

// BatchStart starts the waiting tasks among selected and watches them.
//
// Tasks that are not waiting are left out of the request. The server's aggregate
// answer is trusted: every id sent is watched after a successful response.
func (e *Engine) BatchStart(ctx context.Context, selected []models.Task) error {
	if len(selected) == 0 {
		return e.reject(ctx, ActionBatchStart, shared.ErrNothingSelected, MsgSelectToStart)
	}

	ids := waitingIDs(selected)
	if len(ids) == 0 {
		return e.reject(ctx, ActionBatchStart, shared.ErrNoEligibleTasks, MsgNothingWaiting)
	}

	if err := e.confirm(ctx, fmt.Sprintf("Start %d waiting task(s)? [%s]", len(ids), shared.FormatIDs(ids))); err != nil {
		return err
	}

	if err := e.api.BatchStart(ctx, ids); err != nil {
		return e.fail(ctx, ActionBatchStart, ids, err)
	}

	e.logger.Info("batch started", "task_ids", shared.FormatIDs(ids))
	_ = e.Reload(ctx)
	e.notify(ctx, batchStartedNotice(ids))
	e.Watch(ids...)
	return nil
}

// BatchDelete deletes every selected task and stops watching them.
func (e *Engine) BatchDelete(ctx context.Context, selected []models.Task) error {
	if len(selected) == 0 {
		return e.reject(ctx, ActionBatchDelete, shared.ErrNothingSelected, MsgSelectToDelete)
	}

	ids := taskIDs(selected)
	if err := e.confirm(ctx, fmt.Sprintf("Delete %d task(s)? [%s]", len(ids), shared.FormatIDs(ids))); err != nil {
		return err
	}

	if err := e.api.BatchDelete(ctx, ids); err != nil {
		return e.fail(ctx, ActionBatchDelete, ids, err)
	}

	e.logger.Info("batch deleted", "task_ids", shared.FormatIDs(ids))
	for _, id := range ids {
		e.scheduler.Cancel(id)
	}
	_ = e.Reload(ctx)
	e.notify(ctx, batchDeletedNotice(ids))
	return nil
}

// BatchCreate parses text with [ParseBatch] and creates the result in one request.
// The creation form stays open on failure.
func (e *Engine) BatchCreate(ctx context.Context, text string) error {
	tasks := ParseBatch(text)
	if len(tasks) == 0 {
		return e.reject(ctx, ActionBatchCreate, shared.ErrNoValidTasks, MsgNoValidTaskData)
	}

	if err := e.api.BatchCreate(ctx, tasks); err != nil {
		return e.fail(ctx, ActionBatchCreate, nil, err)
	}

	e.logger.Info("batch created", "count", len(tasks))
	e.presenter.CloseForm()
	_ = e.Reload(ctx)
	e.notify(ctx, batchCreatedNotice(len(tasks)))
	return nil
}

func waitingIDs(tasks []models.Task) []int64 {
	var ids []int64
	for _, t := range tasks {
		if t.Status.Waiting() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func taskIDs(tasks []models.Task) []int64 {
	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
