package tasks

import (
	"fmt"

	"github.com/desertthunder/taskdeck/internal/models"
)

// Actions tag every notice with the operation that produced it.
const (
	ActionLoad        = "load"
	ActionWatch       = "watch"
	ActionStart       = "start"
	ActionDelete      = "delete"
	ActionCreate      = "create"
	ActionBatchStart  = "batch_start"
	ActionBatchDelete = "batch_delete"
	ActionBatchCreate = "batch_create"
)

// Operator-facing messages for client-side failures.
const (
	MsgRequestFailed   = "request failed, check the server connection"
	MsgSelectToStart   = "select tasks to start first"
	MsgSelectToDelete  = "select tasks to delete first"
	MsgNothingWaiting  = "none of the selected tasks are waiting"
	MsgNoValidTaskData = "no valid task data"
)

func newNotice(level models.Level, action string, ids []int64, msg string) models.Notice {
	return models.Notice{Level: level, Action: action, TaskIDs: ids, Message: msg}
}

func startedNotice(id int64) models.Notice {
	return newNotice(models.LevelInfo, ActionStart, []int64{id}, fmt.Sprintf("task %d started", id))
}

func deletedNotice(id int64) models.Notice {
	return newNotice(models.LevelInfo, ActionDelete, []int64{id}, fmt.Sprintf("task %d deleted", id))
}

func createdNotice(name string) models.Notice {
	return newNotice(models.LevelInfo, ActionCreate, nil, fmt.Sprintf("task %q created", name))
}

func batchStartedNotice(ids []int64) models.Notice {
	return newNotice(models.LevelInfo, ActionBatchStart, ids, fmt.Sprintf("started %d task(s)", len(ids)))
}

func batchDeletedNotice(ids []int64) models.Notice {
	return newNotice(models.LevelInfo, ActionBatchDelete, ids, fmt.Sprintf("deleted %d task(s)", len(ids)))
}

func batchCreatedNotice(n int) models.Notice {
	return newNotice(models.LevelInfo, ActionBatchCreate, nil, fmt.Sprintf("created %d task(s)", n))
}

func settledNotice(id int64, report *models.StatusReport) models.Notice {
	level := models.LevelInfo
	if report.Status == models.StatusFailed {
		level = models.LevelWarn
	}
	return newNotice(level, ActionWatch, []int64{id}, fmt.Sprintf("task %d %s", id, report.Status))
}
