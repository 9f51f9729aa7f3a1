package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/desertthunder/taskdeck/internal/formatter"
	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
	"github.com/desertthunder/taskdeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TaskList loads every task and writes it in the requested format.
func (r *Runner) TaskList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	engine := r.newEngine(r.newPresenter(cmd))
	defer engine.Close()

	if err := engine.Reload(ctx); err != nil {
		return err
	}

	all := engine.Store().All()
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteTasksFile(path, format, all); err != nil {
			return err
		}
		r.logger.Info("task list written", "path", path, "count", len(all))
		return nil
	}
	return formatter.WriteTasks(r.output, format, all)
}

// TaskStatus fetches the status of one task without going through the cache.
func (r *Runner) TaskStatus(ctx context.Context, cmd *cli.Command) error {
	id, err := taskID(cmd)
	if err != nil {
		return err
	}

	report, err := r.api.Status(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get status of task %d: %w", id, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			ID int64 `json:"id"`
			*models.StatusReport
		}{id, report}, false)
	}
	task := models.Task{Result: report.Result}
	return r.writePlain("task %d: %s (result %s)\n", id, report.Status, task.ResultString())
}

// TaskCreate creates one task from --name and --url.
func (r *Runner) TaskCreate(ctx context.Context, cmd *cli.Command) error {
	engine := r.newEngine(r.newPresenter(cmd))
	defer engine.Close()

	return engine.Create(ctx, models.NewTask{Name: cmd.String("name"), URL: cmd.String("url")})
}

// TaskBatchCreate creates tasks from "name-url" lines read from --file or stdin.
func (r *Runner) TaskBatchCreate(ctx context.Context, cmd *cli.Command) error {
	var text []byte
	var err error
	if path := cmd.String("file"); path != "" {
		text, err = os.ReadFile(path)
	} else {
		text, err = io.ReadAll(r.input)
	}
	if err != nil {
		return fmt.Errorf("failed to read task lines: %w", err)
	}

	engine := r.newEngine(r.newPresenter(cmd))
	defer engine.Close()

	return engine.BatchCreate(ctx, string(text))
}

// TaskStart starts one task, optionally waiting until it settles.
func (r *Runner) TaskStart(ctx context.Context, cmd *cli.Command) error {
	id, err := taskID(cmd)
	if err != nil {
		return err
	}

	engine := r.newEngine(r.newPresenter(cmd))
	defer engine.Close()

	if err := engine.Start(ctx, id); err != nil {
		return err
	}
	if !cmd.Bool("watch") {
		return nil
	}
	return r.wait(ctx, engine, []int64{id})
}

// TaskBatchStart starts the waiting tasks among the given ids.
//
// Eligibility comes from a fresh load, so ids the server does not know are dropped
// with a warning and ids that are not waiting are filtered by the engine.
func (r *Runner) TaskBatchStart(ctx context.Context, cmd *cli.Command) error {
	ids, err := taskIDs(cmd)
	if err != nil {
		return err
	}

	engine := r.newEngine(r.newPresenter(cmd))
	defer engine.Close()

	selected, err := r.selectTasks(ctx, engine, ids)
	if err != nil {
		return err
	}
	if err := engine.BatchStart(ctx, selected); err != nil {
		return err
	}
	if !cmd.Bool("watch") {
		return nil
	}
	var started []int64
	for _, t := range selected {
		if t.Status.Waiting() {
			started = append(started, t.ID)
		}
	}
	return r.wait(ctx, engine, started)
}

// TaskDelete deletes one task.
func (r *Runner) TaskDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := taskID(cmd)
	if err != nil {
		return err
	}

	engine := r.newEngine(r.newPresenter(cmd))
	defer engine.Close()

	return engine.Delete(ctx, id)
}

// TaskBatchDelete deletes the given tasks in one request.
func (r *Runner) TaskBatchDelete(ctx context.Context, cmd *cli.Command) error {
	ids, err := taskIDs(cmd)
	if err != nil {
		return err
	}

	engine := r.newEngine(r.newPresenter(cmd))
	defer engine.Close()

	selected, err := r.selectTasks(ctx, engine, ids)
	if err != nil {
		return err
	}
	return engine.BatchDelete(ctx, selected)
}

// TaskWatch polls the given tasks until none is running.
func (r *Runner) TaskWatch(ctx context.Context, cmd *cli.Command) error {
	ids, err := taskIDs(cmd)
	if err != nil {
		return err
	}

	engine := r.newEngine(r.newPresenter(cmd))
	defer engine.Close()

	if err := engine.Reload(ctx); err != nil {
		return err
	}
	engine.Watch(ids...)
	return r.wait(ctx, engine, ids)
}

// selectTasks reloads the store and returns the cached rows for ids.
func (r *Runner) selectTasks(ctx context.Context, engine *tasks.Engine, ids []int64) ([]models.Task, error) {
	if err := engine.Reload(ctx); err != nil {
		return nil, err
	}

	selected := engine.Store().Select(ids)
	if len(selected) < len(ids) {
		var missing []int64
		for _, id := range ids {
			if !slices.ContainsFunc(selected, func(t models.Task) bool { return t.ID == id }) {
				missing = append(missing, id)
			}
		}
		r.logger.Warn("unknown task ids skipped", "task_ids", shared.FormatIDs(missing))
	}
	return selected, nil
}

// wait blocks until every watch has ended, then prints the final state of ids.
func (r *Runner) wait(ctx context.Context, engine *tasks.Engine, ids []int64) error {
	r.logger.Info("waiting for tasks to settle", "task_ids", shared.FormatIDs(ids))
	if err := engine.Wait(ctx); err != nil {
		return fmt.Errorf("stopped waiting: %w", err)
	}
	if err := engine.Reload(ctx); err != nil {
		return err
	}
	return formatter.WriteTasks(r.output, formatter.Text, engine.Store().Select(ids))
}

func taskID(cmd *cli.Command) (int64, error) {
	arg := cmd.StringArg("id")
	if arg == "" {
		return 0, fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}
	return shared.ParseID(arg)
}

func taskIDs(cmd *cli.Command) ([]int64, error) {
	args := cmd.StringArgs("ids")
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one task id", shared.ErrMissingArgument)
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		parsed, err := shared.ParseIDs(arg)
		if err != nil {
			return nil, err
		}
		for _, id := range parsed {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}
