package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
)

// ErrAborted is returned when the operator declines a confirmation.
var ErrAborted = errors.New("aborted by operator")

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 2 * time.Second

// TaskAPI is the remote task-management API. [services.TaskService] implements it.
type TaskAPI interface {
	List(ctx context.Context, opts models.ListOpts) (*models.TaskPage, error)
	Status(ctx context.Context, id int64) (*models.StatusReport, error)
	Create(ctx context.Context, task models.NewTask) error
	BatchCreate(ctx context.Context, tasks []models.NewTask) error
	Start(ctx context.Context, id int64) error
	BatchStart(ctx context.Context, ids []int64) error
	Delete(ctx context.Context, id int64) error
	BatchDelete(ctx context.Context, ids []int64) error
}

// Presenter is the operator-facing surface the engine talks to.
type Presenter interface {
	// Confirm asks a yes/no question. A false answer aborts the operation.
	Confirm(ctx context.Context, prompt string) (bool, error)
	// Notify shows a message. It may be called from polling goroutines.
	Notify(n models.Notice)
	// CloseForm dismisses the creation form after a successful create.
	CloseForm()
}

// Recorder persists notices.
type Recorder interface {
	RecordNotice(ctx context.Context, n models.Notice) error
}

// Options configures [NewEngine]. Zero values fall back to defaults.
type Options struct {
	Interval     time.Duration // Polling interval, defaults to [DefaultInterval]
	SkipInFlight bool          // Skip a tick while the previous status request is outstanding
	PageSize     int           // List page size, 0 fetches everything in one request
	Logger       *log.Logger
	Recorder     Recorder // Optional
}

// Engine wires the task store, the polling scheduler and the coordinators together.
type Engine struct {
	api       TaskAPI
	presenter Presenter
	recorder  Recorder
	store     *Store
	scheduler *Scheduler
	logger    *log.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine creates an engine. Call [Engine.Close] to stop every watch.
func NewEngine(api TaskAPI, presenter Presenter, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		api:       api,
		presenter: presenter,
		recorder:  opts.Recorder,
		logger:    shared.WithLogger(opts.Logger, "component", "engine"),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
	e.store = NewStore(api.List, opts.PageSize)
	e.scheduler = NewScheduler(api.Status, e.watchEnded, SchedulerOpts{
		Interval:     opts.Interval,
		SkipInFlight: opts.SkipInFlight,
		Logger:       shared.WithLogger(opts.Logger, "component", "scheduler"),
	})
	return e
}

func (e *Engine) Store() *Store { return e.store }

func (e *Engine) Scheduler() *Scheduler { return e.scheduler }

// Close cancels every watch and any background reload.
func (e *Engine) Close() {
	e.cancel()
	e.scheduler.Close()
}

// Reload refreshes the store from the server, notifying the operator on failure.
func (e *Engine) Reload(ctx context.Context) error {
	if err := e.store.Load(ctx); err != nil {
		return e.fail(ctx, ActionLoad, nil, err)
	}
	return nil
}

// Resume loads the task list and watches every task the server reports as running.
// It returns the ids that are now watched.
func (e *Engine) Resume(ctx context.Context) ([]int64, error) {
	if err := e.Reload(ctx); err != nil {
		return nil, err
	}

	var ids []int64
	for _, t := range e.store.All() {
		if t.Status.Running() && e.scheduler.Watch(t.ID) {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) > 0 {
		e.logger.Info("resumed watches", "task_ids", shared.FormatIDs(ids))
	}
	return ids, nil
}

// Watch starts polling the given tasks. Ids that are already watched are left alone.
func (e *Engine) Watch(ids ...int64) {
	for _, id := range ids {
		if e.scheduler.Watch(id) {
			e.logger.Debug("watching task", "task_id", id)
		}
	}
}

// Wait blocks until no task is watched.
func (e *Engine) Wait(ctx context.Context) error {
	return e.scheduler.Wait(ctx)
}

// watchEnded runs once for every watch that ends on its own. Nothing is reported
// once the engine is closed.
func (e *Engine) watchEnded(id int64, report *models.StatusReport, err error) {
	if e.ctx.Err() != nil {
		e.logger.Debug("watch ended after close", "task_id", id)
		return
	}
	if err != nil {
		_ = e.fail(e.ctx, ActionWatch, []int64{id}, err)
		return
	}

	e.logger.Info("task settled", "task_id", id, "status", report.Status)
	e.notify(e.ctx, settledNotice(id, report))
	_ = e.Reload(e.ctx)
}

// confirm returns [ErrAborted] when the operator declines.
func (e *Engine) confirm(ctx context.Context, prompt string) error {
	ok, err := e.presenter.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

// reject reports a client-side validation failure. No request has been made.
func (e *Engine) reject(ctx context.Context, action string, sentinel error, msg string) error {
	e.notify(ctx, newNotice(models.LevelWarn, action, nil, msg))
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// fail reports a request failure. Server messages are shown verbatim; anything else
// gets a generic message and the cause is logged.
func (e *Engine) fail(ctx context.Context, action string, ids []int64, err error) error {
	msg, ok := shared.ServerMessage(err)
	if !ok {
		msg = MsgRequestFailed
		e.logger.Error("request failed", "action", action, "task_ids", shared.FormatIDs(ids), "error", err)
	} else {
		e.logger.Warn("server rejected request", "action", action, "task_ids", shared.FormatIDs(ids), "msg", msg)
	}
	e.notify(ctx, newNotice(models.LevelError, action, ids, msg))
	return fmt.Errorf("%s: %w", action, err)
}

func (e *Engine) notify(ctx context.Context, n models.Notice) {
	n.CreatedAt = e.now()
	e.presenter.Notify(n)

	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordNotice(ctx, n); err != nil {
		e.logger.Warn("failed to record notice", "action", n.Action, "error", err)
	}
}
