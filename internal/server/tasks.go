package server

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
)

// Envelope messages returned by [TaskServer].
const (
	MsgLoginRequired = "login required"
	MsgTaskNotFound  = "task not found"
	MsgBadRequest    = "invalid request body"
	MsgEmptyTasks    = "task data must not be empty"
	MsgMissingFields = "name and url are required"
)

// DefaultRunTime is how long a started task runs when none is configured.
const DefaultRunTime = 5 * time.Second

// TaskServerOpts configures [NewTaskServer].
type TaskServerOpts struct {
	Token   string        // Bearer token required on every request, empty for none
	RunTime time.Duration // How long a started task stays running
	Logger  *log.Logger
	Outcome func() bool // Reports whether a finished run succeeded; random when nil
}

// TaskServer is an in-memory implementation of the task-management API.
type TaskServer struct {
	mu     sync.Mutex
	tasks  map[int64]*models.Task
	timers map[int64]*time.Timer
	nextID int64

	runTime time.Duration
	outcome func() bool
	now     func() time.Time
	logger  *log.Logger
	router  *APIRouter
}

// NewTaskServer builds a server with its routes and middleware registered.
func NewTaskServer(opts TaskServerOpts) *TaskServer {
	if opts.RunTime <= 0 {
		opts.RunTime = DefaultRunTime
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Outcome == nil {
		opts.Outcome = func() bool { return rand.IntN(2) == 1 }
	}

	s := &TaskServer{
		tasks:   make(map[int64]*models.Task),
		timers:  make(map[int64]*time.Timer),
		runTime: opts.RunTime,
		outcome: opts.Outcome,
		now:     time.Now,
		logger:  opts.Logger,
	}

	s.router = NewAPIRouter(Recover(s.logger), Logging(s.logger), RequireToken(opts.Token))
	s.router.Mount(
		Route{http.MethodGet, "/task/list", s.handleList},
		Route{http.MethodGet, "/task/{id}/status", s.handleStatus},
		Route{http.MethodPost, "/task", s.handleCreate},
		Route{http.MethodPost, "/task/batch/create", s.handleBatchCreate},
		Route{http.MethodPost, "/task/{id}/start", s.handleStart},
		Route{http.MethodPost, "/task/batch/start", s.handleBatchStart},
		Route{http.MethodDelete, "/task/{id}", s.handleDelete},
		Route{http.MethodPost, "/task/batch/delete", s.handleBatchDelete},
	)
	return s
}

func (s *TaskServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *TaskServer) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("task server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("error shutting down server", "error", err)
	}
	s.Close()
	return nil
}

// Close stops every pending completion timer. Running tasks stay running.
func (s *TaskServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Seed adds tasks directly, bypassing HTTP. Used by tests and the devserver --seed flag.
func (s *TaskServer) Seed(tasks ...models.NewTask) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = s.insert(t)
	}
	return ids
}

// Task returns a copy of one task.
func (s *TaskServer) Task(id int64) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return *t, true
}

func (s *TaskServer) handleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	s.mu.Lock()
	all := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		all = append(all, *t)
	}
	s.mu.Unlock()

	slices.SortFunc(all, func(a, b models.Task) int { return cmp.Compare(a.ID, b.ID) })
	count := len(all)
	if limit > 0 {
		start := min(max(page-1, 0)*limit, count)
		all = all[start:min(start+limit, count)]
	}
	writeData(w, all, &count)
}

func (s *TaskServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	t, found := s.tasks[id]
	var report models.StatusReport
	if found {
		report = models.StatusReport{Status: t.Status, Result: t.Result}
	}
	s.mu.Unlock()

	if !found {
		writeEnvelope(w, models.Envelope{Code: 1, Msg: MsgTaskNotFound})
		return
	}
	writeData(w, report, nil)
}

func (s *TaskServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var task models.NewTask
	if !decode(w, r, &task) {
		return
	}
	if task.Validate() != nil {
		writeEnvelope(w, models.Envelope{Code: 1, Msg: MsgMissingFields})
		return
	}

	s.mu.Lock()
	id := s.insert(task)
	s.mu.Unlock()

	s.logger.Info("task created", "task_id", id, "name", task.Name)
	writeEnvelope(w, models.Envelope{Msg: "task created"})
}

func (s *TaskServer) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	var req models.BatchCreateRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Tasks) == 0 {
		writeEnvelope(w, models.Envelope{Code: 1, Msg: MsgEmptyTasks})
		return
	}
	for _, t := range req.Tasks {
		if t.Validate() != nil {
			writeEnvelope(w, models.Envelope{Code: 1, Msg: MsgMissingFields})
			return
		}
	}

	s.mu.Lock()
	for _, t := range req.Tasks {
		s.insert(t)
	}
	s.mu.Unlock()

	writeEnvelope(w, models.Envelope{Msg: fmt.Sprintf("created %d task(s)", len(req.Tasks))})
}

func (s *TaskServer) handleStart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	t, found := s.tasks[id]
	if found {
		s.start(t)
	}
	s.mu.Unlock()

	if !found {
		writeEnvelope(w, models.Envelope{Code: 1, Msg: MsgTaskNotFound})
		return
	}
	writeEnvelope(w, models.Envelope{Msg: "task started"})
}

func (s *TaskServer) handleBatchStart(w http.ResponseWriter, r *http.Request) {
	var req models.IDsRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	started := 0
	for _, id := range req.TaskIDs {
		if t, ok := s.tasks[id]; ok && t.Status.Waiting() {
			s.start(t)
			started++
		}
	}
	s.mu.Unlock()

	s.logger.Info("batch start", "requested", len(req.TaskIDs), "started", started)
	writeEnvelope(w, models.Envelope{Msg: "batch start succeeded"})
}

func (s *TaskServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	_, found := s.tasks[id]
	if found {
		s.remove(id)
	}
	s.mu.Unlock()

	if !found {
		writeEnvelope(w, models.Envelope{Code: 1, Msg: MsgTaskNotFound})
		return
	}
	writeEnvelope(w, models.Envelope{Msg: "task deleted"})
}

func (s *TaskServer) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req models.IDsRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	for _, id := range req.TaskIDs {
		s.remove(id)
	}
	s.mu.Unlock()

	writeEnvelope(w, models.Envelope{Msg: "batch delete succeeded"})
}

// insert must be called with mu held.
func (s *TaskServer) insert(task models.NewTask) int64 {
	s.nextID++
	s.tasks[s.nextID] = &models.Task{
		ID:        s.nextID,
		Name:      task.Name,
		URL:       task.URL,
		Status:    models.StatusWaiting,
		CreatedAt: s.now().Format(models.TimeLayout),
	}
	return s.nextID
}

// start must be called with mu held. Restarting a task resets its timer.
func (s *TaskServer) start(t *models.Task) {
	t.Status = models.StatusRunning
	t.Result = nil
	if timer, ok := s.timers[t.ID]; ok {
		timer.Stop()
	}

	id := t.ID
	s.timers[id] = time.AfterFunc(s.runTime, func() { s.finish(id) })
	s.logger.Debug("task running", "task_id", id)
}

func (s *TaskServer) finish(id int64) {
	result := 0
	status := models.StatusFailed
	if s.outcome() {
		result, status = 1, models.StatusFinished
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
	if t, ok := s.tasks[id]; ok && t.Status.Running() {
		t.Status = status
		t.Result = &result
		s.logger.Info("task settled", "task_id", id, "status", status)
	}
}

// remove must be called with mu held.
func (s *TaskServer) remove(id int64) {
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
	delete(s.tasks, id)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeEnvelope(w, models.Envelope{Code: 1, Msg: MsgTaskNotFound})
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeEnvelope(w, models.Envelope{Code: 1, Msg: MsgBadRequest})
		return false
	}
	return true
}

func writeData(w http.ResponseWriter, data any, count *int) {
	raw, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	writeEnvelope(w, models.Envelope{Data: raw, Count: count})
}

func writeEnvelope(w http.ResponseWriter, env models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}
