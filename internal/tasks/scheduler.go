package tasks

import (
	"context"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
)

// StatusFunc fetches the status of one task.
type StatusFunc func(ctx context.Context, id int64) (*models.StatusReport, error)

// DoneFunc is called once when a watch ends on its own, either with a
// non-running report or with the error that ended it.
type DoneFunc func(id int64, report *models.StatusReport, err error)

// SchedulerOpts configures [NewScheduler].
type SchedulerOpts struct {
	Interval     time.Duration
	SkipInFlight bool
	Logger       *log.Logger
}

// watch is the handle for one polled task. Its pointer identity tells a live
// response from a stale one.
type watch struct {
	id       int64
	cancel   context.CancelFunc
	inFlight atomic.Bool
}

// Scheduler polls task status until each watched task leaves "running".
type Scheduler struct {
	mu      sync.Mutex
	watches map[int64]*watch
	idle    chan struct{}

	status       StatusFunc
	done         DoneFunc
	interval     time.Duration
	skipInFlight bool
	logger       *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(status StatusFunc, done DoneFunc, opts SchedulerOpts) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if done == nil {
		done = func(int64, *models.StatusReport, error) {}
	}

	idle := make(chan struct{})
	close(idle)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		watches:      make(map[int64]*watch),
		idle:         idle,
		status:       status,
		done:         done,
		interval:     opts.Interval,
		skipInFlight: opts.SkipInFlight,
		logger:       opts.Logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Watch starts polling id. It returns false if id is already watched.
func (s *Scheduler) Watch(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watches[id]; ok {
		return false
	}
	if s.ctx.Err() != nil {
		return false
	}

	ctx, cancel := context.WithCancel(s.ctx)
	w := &watch{id: id, cancel: cancel}
	if len(s.watches) == 0 {
		s.idle = make(chan struct{})
	}
	s.watches[id] = w

	go s.run(ctx, w)
	return true
}

// Cancel stops polling id and aborts its outstanding request.
func (s *Scheduler) Cancel(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watches[id]
	if !ok {
		return false
	}
	s.remove(w)
	return true
}

// CancelAll stops every watch.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.watches {
		s.remove(w)
	}
}

// Close stops every watch and refuses new ones.
func (s *Scheduler) Close() {
	s.CancelAll()
	s.cancel()
}

// Active returns the watched ids in ascending order.
func (s *Scheduler) Active() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.watches))
	for id := range s.watches {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Scheduler) Watching(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.watches[id]
	return ok
}

// Wait blocks until no task is watched or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(ctx context.Context, w *watch) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.skipInFlight && !w.inFlight.CompareAndSwap(false, true) {
			s.logger.Debug("previous status request outstanding, skipping tick", "task_id", w.id)
			continue
		}
		go s.poll(ctx, w)
	}
}

func (s *Scheduler) poll(ctx context.Context, w *watch) {
	if s.skipInFlight {
		defer w.inFlight.Store(false)
	}

	report, err := s.status(ctx, w.id)
	if err == nil && report.Status.Running() {
		return
	}

	if !s.release(w) {
		s.logger.Debug("discarding stale status response", "task_id", w.id)
		return
	}
	s.done(w.id, report, err)
}

// release removes w if it is still the registered watch for its id.
func (s *Scheduler) release(w *watch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watches[w.id] != w {
		return false
	}
	s.remove(w)
	return true
}

// remove must be called with mu held.
func (s *Scheduler) remove(w *watch) {
	delete(s.watches, w.id)
	w.cancel()
	if len(s.watches) == 0 {
		close(s.idle)
	}
}
