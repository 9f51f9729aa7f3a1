// Endpoint methods for /task
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/taskdeck/internal/models"
)

// List fetches one page of the caller's tasks.
func (s *TaskService) List(ctx context.Context, opts models.ListOpts) (*models.TaskPage, error) {
	path := "/task/list"
	if opts.Limit > 0 {
		q := url.Values{}
		q.Set("page", strconv.Itoa(max(opts.Page, 1)))
		q.Set("limit", strconv.Itoa(opts.Limit))
		path += "?" + q.Encode()
	}

	var tasks []models.Task
	env, err := s.call(ctx, http.MethodGet, path, nil, &tasks)
	if err != nil {
		return nil, err
	}

	page := &models.TaskPage{Tasks: tasks, Count: len(tasks)}
	if env.Count != nil {
		page.Count = *env.Count
	}
	return page, nil
}

// Status fetches the current status of one task.
func (s *TaskService) Status(ctx context.Context, id int64) (*models.StatusReport, error) {
	var report models.StatusReport
	if _, err := s.call(ctx, http.MethodGet, taskPath(id, "/status"), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Create submits a single task.
func (s *TaskService) Create(ctx context.Context, task models.NewTask) error {
	_, err := s.call(ctx, http.MethodPost, "/task", task, nil)
	return err
}

// BatchCreate submits several tasks in one request.
func (s *TaskService) BatchCreate(ctx context.Context, tasks []models.NewTask) error {
	_, err := s.call(ctx, http.MethodPost, "/task/batch/create", models.BatchCreateRequest{Tasks: tasks}, nil)
	return err
}

// Start starts one task.
func (s *TaskService) Start(ctx context.Context, id int64) error {
	_, err := s.call(ctx, http.MethodPost, taskPath(id, "/start"), nil, nil)
	return err
}

// BatchStart starts several tasks; the server answers with one aggregate result.
func (s *TaskService) BatchStart(ctx context.Context, ids []int64) error {
	_, err := s.call(ctx, http.MethodPost, "/task/batch/start", models.IDsRequest{TaskIDs: ids}, nil)
	return err
}

// Delete deletes one task.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	_, err := s.call(ctx, http.MethodDelete, taskPath(id, ""), nil, nil)
	return err
}

// BatchDelete deletes several tasks with one aggregate result.
func (s *TaskService) BatchDelete(ctx context.Context, ids []int64) error {
	_, err := s.call(ctx, http.MethodPost, "/task/batch/delete", models.IDsRequest{TaskIDs: ids}, nil)
	return err
}

func taskPath(id int64, suffix string) string {
	return fmt.Sprintf("/task/%d%s", id, suffix)
}
