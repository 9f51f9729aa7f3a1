package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
	tu "github.com/desertthunder/taskdeck/internal/testing"
)

func writeEnvelope(w http.ResponseWriter, env any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(env)
}

func TestTaskService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewTaskService(TaskServiceOpts{})

			if srv.baseURL != defaultBaseURL {
				t.Errorf("expected default baseURL %s, got %s", defaultBaseURL, srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
			if srv.limiter != nil {
				t.Error("expected no limiter when rate limit is zero")
			}
		})

		t.Run("Trailing Slash Is Trimmed", func(t *testing.T) {
			srv := NewTaskService(TaskServiceOpts{BaseURL: "http://example.com/"})

			if srv.BaseURL() != "http://example.com" {
				t.Errorf("expected trimmed base URL, got %s", srv.BaseURL())
			}
		})

		t.Run("From Config", func(t *testing.T) {
			cfg := shared.DefaultConfig().API
			cfg.RateLimit = 3

			srv := NewTaskServiceFromConfig(cfg, nil)
			if srv.limiter == nil {
				t.Error("expected limiter to be configured")
			}
			if srv.timeout != cfg.Timeout() {
				t.Errorf("expected timeout %v, got %v", cfg.Timeout(), srv.timeout)
			}
		})
	})

	t.Run("Envelope", func(t *testing.T) {
		t.Run("Server Reported Failure", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, map[string]any{"code": 1, "msg": "task not found"})
			}))
			defer server.Close()

			srv := NewTaskService(TaskServiceOpts{BaseURL: server.URL})
			env, err := srv.Envelope(context.Background(), http.MethodGet, "/task/9/status", nil)

			if !errors.Is(err, shared.ErrServerRejected) {
				t.Fatalf("expected ErrServerRejected, got %v", err)
			}
			if env == nil || env.Code != 1 {
				t.Errorf("expected envelope to be returned with the error, got %+v", env)
			}
			msg, ok := shared.ServerMessage(err)
			if !ok || msg != "task not found" {
				t.Errorf("expected server message 'task not found', got %q (%v)", msg, ok)
			}
		})

		t.Run("Non JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>oops</html>"))
			}))
			defer server.Close()

			srv := NewTaskService(TaskServiceOpts{BaseURL: server.URL})
			_, err := srv.Envelope(context.Background(), http.MethodGet, "/task/list", nil)

			if !errors.Is(err, shared.ErrTransport) {
				t.Fatalf("expected ErrTransport, got %v", err)
			}
			if _, ok := shared.ServerMessage(err); ok {
				t.Error("transport failures must not carry a server message")
			}
		})

		t.Run("HTTP Error Without Envelope", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			}))
			defer server.Close()

			srv := NewTaskService(TaskServiceOpts{BaseURL: server.URL})
			_, err := srv.Envelope(context.Background(), http.MethodGet, "/nope", nil)

			if !errors.Is(err, shared.ErrTransport) {
				t.Fatalf("expected ErrTransport, got %v", err)
			}
			if !strings.Contains(err.Error(), "status 404") {
				t.Errorf("expected status in error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused")),
			}

			srv := NewTaskService(TaskServiceOpts{BaseURL: "http://example.com", HTTPClient: client})
			_, err := srv.Envelope(context.Background(), http.MethodGet, "/task/list", nil)

			if !errors.Is(err, shared.ErrTransport) {
				t.Fatalf("expected ErrTransport, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			srv := NewTaskService(TaskServiceOpts{BaseURL: "http://example.com", HTTPClient: client})
			_, err := srv.Envelope(context.Background(), http.MethodGet, "/task/list", nil)

			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := NewTaskService(TaskServiceOpts{BaseURL: "http://example.com"})
			_, err := srv.Envelope(context.Background(), http.MethodGet, "/test\x00invalid", nil)

			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Timeout", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			}))
			defer server.Close()

			srv := NewTaskService(TaskServiceOpts{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
			_, err := srv.Envelope(context.Background(), http.MethodGet, "/task/list", nil)

			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport on timeout, got %v", err)
			}
		})

		t.Run("Bearer Token And Cookie", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer s3cret" {
					t.Errorf("expected bearer token header, got %q", got)
				}
				if got := r.Header.Get("Cookie"); got != "session=abc" {
					t.Errorf("expected cookie header, got %q", got)
				}
				writeEnvelope(w, map[string]any{"code": 0, "msg": ""})
			}))
			defer server.Close()

			srv := NewTaskService(TaskServiceOpts{BaseURL: server.URL, Token: "s3cret", Cookie: "session=abc"})
			if _, err := srv.Envelope(context.Background(), http.MethodGet, "/task/list", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("Endpoints", func(t *testing.T) {
		t.Run("List With Pagination", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/task/list" {
					t.Errorf("expected path /task/list, got %s", r.URL.Path)
				}
				if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "1" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				writeEnvelope(w, map[string]any{
					"code":  0,
					"msg":   "",
					"count": 2,
					"data":  []models.Task{{ID: 2, Name: "b", URL: "http://b", Status: models.StatusRunning}},
				})
			}))
			defer server.Close()

			srv := NewTaskService(TaskServiceOpts{BaseURL: server.URL})
			page, err := srv.List(context.Background(), models.ListOpts{Page: 2, Limit: 1})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if page.Count != 2 || len(page.Tasks) != 1 || page.Tasks[0].ID != 2 {
				t.Errorf("unexpected page: %+v", page)
			}
		})

		t.Run("List Without Pagination", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.RawQuery != "" {
					t.Errorf("expected no query, got %s", r.URL.RawQuery)
				}
				writeEnvelope(w, map[string]any{"code": 0, "data": []models.Task{{ID: 1}, {ID: 2}}})
			}))
			defer server.Close()

			srv := NewTaskService(TaskServiceOpts{BaseURL: server.URL})
			page, err := srv.List(context.Background(), models.ListOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if page.Count != 2 {
				t.Errorf("expected count to fall back to len(data), got %d", page.Count)
			}
		})

		t.Run("Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/task/5/status" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				writeEnvelope(w, map[string]any{"code": 0, "data": map[string]any{"status": "finished", "result": 1}})
			}))
			defer server.Close()

			srv := NewTaskService(TaskServiceOpts{BaseURL: server.URL})
			report, err := srv.Status(context.Background(), 5)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if report.Status != models.StatusFinished || report.Result == nil || *report.Result != 1 {
				t.Errorf("unexpected report: %+v", report)
			}
		})

		t.Run("Mutations Send Expected Requests", func(t *testing.T) {
			type seen struct {
				method string
				path   string
				body   string
			}
			var (
				mu       sync.Mutex
				requests []seen
			)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				mu.Lock()
				requests = append(requests, seen{r.Method, r.URL.Path, strings.TrimSpace(string(body))})
				mu.Unlock()
				writeEnvelope(w, map[string]any{"code": 0, "msg": "ok"})
			}))
			defer server.Close()

			srv := NewTaskService(TaskServiceOpts{BaseURL: server.URL})
			ctx := context.Background()

			calls := []func() error{
				func() error { return srv.Create(ctx, models.NewTask{Name: "a", URL: "http://a"}) },
				func() error { return srv.BatchCreate(ctx, []models.NewTask{{Name: "b", URL: "http://b"}}) },
				func() error { return srv.Start(ctx, 3) },
				func() error { return srv.BatchStart(ctx, []int64{1, 2}) },
				func() error { return srv.Delete(ctx, 7) },
				func() error { return srv.BatchDelete(ctx, []int64{8}) },
			}
			for i, call := range calls {
				if err := call(); err != nil {
					t.Fatalf("call %d failed: %v", i, err)
				}
			}

			mu.Lock()
			defer mu.Unlock()

			want := []seen{
				{http.MethodPost, "/task", `{"name":"a","url":"http://a"}`},
				{http.MethodPost, "/task/batch/create", `{"tasks":[{"name":"b","url":"http://b"}]}`},
				{http.MethodPost, "/task/3/start", ""},
				{http.MethodPost, "/task/batch/start", `{"task_ids":[1,2]}`},
				{http.MethodDelete, "/task/7", ""},
				{http.MethodPost, "/task/batch/delete", `{"task_ids":[8]}`},
			}
			if len(requests) != len(want) {
				t.Fatalf("expected %d requests, got %d", len(want), len(requests))
			}
			for i := range want {
				if requests[i] != want[i] {
					t.Errorf("request %d = %+v, want %+v", i, requests[i], want[i])
				}
			}
		})

		t.Run("Rate Limited Requests Still Complete", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				writeEnvelope(w, map[string]any{"code": 0, "data": map[string]any{"status": "running"}})
			}))
			defer server.Close()

			srv := NewTaskService(TaskServiceOpts{BaseURL: server.URL, RateLimit: 100})
			for i := 0; i < 3; i++ {
				if _, err := srv.Status(context.Background(), 1); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			if hits.Load() != 3 {
				t.Errorf("expected 3 requests, got %d", hits.Load())
			}
		})

		t.Run("Canceled Context While Rate Limited", func(t *testing.T) {
			srv := NewTaskService(TaskServiceOpts{BaseURL: "http://example.com", RateLimit: 0.001})
			srv.limiter.Allow()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := srv.Status(ctx, 1); !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})
	})
}
