// HTTP plumbing for the task-management API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:5000"

// TaskServiceOpts configures [NewTaskService].
type TaskServiceOpts struct {
	BaseURL    string        // Defaults to http://127.0.0.1:5000
	HTTPClient *http.Client  // Defaults to [http.DefaultClient]
	Token      string        // Optional bearer token
	Cookie     string        // Optional Cookie header value
	Timeout    time.Duration // Per-request timeout, 0 for none
	RateLimit  float64       // Requests per second, 0 for unlimited
}

// TaskService is the client for the task-management API.
type TaskService struct {
	baseURL    string
	cookie     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewTaskService creates a client from opts.
func NewTaskService(opts TaskServiceOpts) *TaskService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	client := opts.HTTPClient
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.HTTPClient)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.Token,
			TokenType:   "Bearer",
		}))
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &TaskService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		cookie:     opts.Cookie,
		timeout:    opts.Timeout,
		httpClient: client,
		limiter:    limiter,
	}
}

// NewTaskServiceFromConfig builds a client from the [api] section of the configuration.
func NewTaskServiceFromConfig(cfg shared.APIConfig, client *http.Client) *TaskService {
	return NewTaskService(TaskServiceOpts{
		BaseURL:    cfg.BaseURL,
		HTTPClient: client,
		Token:      cfg.Token,
		Cookie:     cfg.Cookie,
		Timeout:    cfg.Timeout(),
		RateLimit:  cfg.RateLimit,
	})
}

// BaseURL returns the server root the client talks to.
func (s *TaskService) BaseURL() string { return s.baseURL }

// Envelope performs one request and returns the decoded envelope.
//
// A body of nil sends no payload; any other value is JSON encoded. Server-reported failures are returned as [*shared.APIError]
// together with the envelope.
func (s *TaskService) Envelope(ctx context.Context, method, path string, body any) (*models.Envelope, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrTransport, err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrTransport, err)
	}

	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %s %s: status %d", shared.ErrTransport, method, path, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s %s: response is not a JSON envelope", shared.ErrTransport, method, path)
	}

	if !env.OK() {
		return &env, &shared.APIError{Method: method, Path: path, Code: env.Code, Msg: env.Msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s: status %d", shared.ErrTransport, method, path, resp.StatusCode)
	}

	return &env, nil
}

// call performs a request and decodes a successful payload into out, which may be nil.
func (s *TaskService) call(ctx context.Context, method, path string, body, out any) (*models.Envelope, error) {
	env, err := s.Envelope(ctx, method, path, body)
	if err != nil {
		return env, err
	}
	if out != nil {
		if err := env.Decode(out); err != nil {
			return env, fmt.Errorf("%w: %s %s: %v", shared.ErrTransport, method, path, err)
		}
	}
	return env, nil
}
