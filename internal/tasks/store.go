package tasks

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/taskdeck/internal/models"
	"golang.org/x/sync/singleflight"
)

// ListFunc fetches one page of the task list.
type ListFunc func(ctx context.Context, opts models.ListOpts) (*models.TaskPage, error)

// Store caches the server's task list.
//
// The cache only changes through [Store.Load], which replaces it wholesale, and
// [Store.Remove]. Listeners registered with [Store.OnChange] run after either.
// A removed id stays out of the cache until a fetch that started after the removal lands.
type Store struct {
	mu        sync.RWMutex
	tasks     map[int64]models.Task
	removed   map[int64]uint64 // id -> last fetch generation issued when it was removed
	listeners []func([]models.Task)

	list     ListFunc
	pageSize int
	group    singleflight.Group
	gen      atomic.Uint64
}

func NewStore(list ListFunc, pageSize int) *Store {
	return &Store{
		tasks:    make(map[int64]models.Task),
		removed:  make(map[int64]uint64),
		list:     list,
		pageSize: pageSize,
	}
}

// Load fetches the full task list and replaces the cache.
//
// Concurrent calls share one fetch, but a caller never settles for a fetch that
// started before it did; it waits for the next one instead.
func (s *Store) Load(ctx context.Context) error {
	want := s.gen.Load() + 1
	for {
		v, err, _ := s.group.Do("load", func() (any, error) {
			gen := s.gen.Add(1)
			tasks, err := s.fetch(ctx)
			if err != nil {
				return gen, err
			}
			s.replace(tasks, gen)
			return gen, nil
		})
		if err != nil {
			return err
		}
		if v.(uint64) >= want {
			return nil
		}
	}
}

func (s *Store) fetch(ctx context.Context) (map[int64]models.Task, error) {
	tasks := make(map[int64]models.Task)
	if s.pageSize <= 0 {
		page, err := s.list(ctx, models.ListOpts{})
		if err != nil {
			return nil, err
		}
		for _, t := range page.Tasks {
			tasks[t.ID] = t
		}
		return tasks, nil
	}

	for n := 1; ; n++ {
		page, err := s.list(ctx, models.ListOpts{Page: n, Limit: s.pageSize})
		if err != nil {
			return nil, err
		}

		before := len(tasks)
		for _, t := range page.Tasks {
			tasks[t.ID] = t
		}
		// A server that ignores paging repeats rows; stop when a page adds nothing.
		if len(page.Tasks) < s.pageSize || len(tasks) >= page.Count || len(tasks) == before {
			return tasks, nil
		}
	}
}

// replace installs the result of fetch gen. Rows removed after that fetch was
// issued are dropped from it; removals it already reflects are forgotten.
func (s *Store) replace(tasks map[int64]models.Task, gen uint64) {
	s.mu.Lock()
	for id, at := range s.removed {
		if gen <= at {
			delete(tasks, id)
		} else {
			delete(s.removed, id)
		}
	}
	s.tasks = tasks
	s.mu.Unlock()
	s.changed()
}

// Remove drops id from the cache without contacting the server. Loads already in
// flight will not bring it back.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	_, ok := s.tasks[id]
	delete(s.tasks, id)
	s.removed[id] = s.gen.Load()
	s.mu.Unlock()

	if ok {
		s.changed()
	}
	return ok
}

func (s *Store) Get(id int64) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// All returns a copy of the cache ordered by id.
func (s *Store) All() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Select returns the cached tasks among ids, in the order given. Unknown ids are skipped.
func (s *Store) Select(ids []int64) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// OnChange registers fn to receive a snapshot after every change.
func (s *Store) OnChange(fn func([]models.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) changed() {
	s.mu.RLock()
	snap := s.snapshot()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Store) snapshot() []models.Task {
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b models.Task) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
