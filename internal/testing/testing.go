// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
)

// Call is one request recorded by [FakeAPI]
type Call struct {
	Method string
	IDs    []int64
	Tasks  []models.NewTask
}

// FakeAPI is an in-memory double for the task API.
//
// Errors registered with [FakeAPI.Fail] are returned by the named method; status
// responses follow [FakeAPI.SetStatus] or the task list when nothing is scripted.
type FakeAPI struct {
	mu       sync.Mutex
	tasks    map[int64]models.Task
	statuses map[int64][]models.Status
	errs     map[string]error
	calls    []Call
	polls    map[int64]int
	lists    int
	nextID   int64

	// Gate, when set, blocks Status until a value is received or the channel is closed.
	// The wait ignores the request context so late responses can be simulated.
	Gate chan struct{}
}

// NewFakeAPI seeds a fake with tasks.
func NewFakeAPI(tasks ...models.Task) *FakeAPI {
	f := &FakeAPI{
		tasks:    make(map[int64]models.Task),
		statuses: make(map[int64][]models.Status),
		errs:     make(map[string]error),
		polls:    make(map[int64]int),
	}
	for _, t := range tasks {
		f.tasks[t.ID] = t
		f.nextID = max(f.nextID, t.ID)
	}
	return f
}

// Fail makes method return err until cleared with a nil err.
func (f *FakeAPI) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Reject makes method fail the way the server reports a rejected request.
func (f *FakeAPI) Reject(method, msg string) {
	f.Fail(method, &shared.APIError{Method: method, Code: 1, Msg: msg})
}

// SetStatus scripts successive status responses for id. The last entry repeats.
func (f *FakeAPI) SetStatus(id int64, statuses ...models.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = statuses
}

// SetTaskStatus changes the status the list endpoint reports for id.
func (f *FakeAPI) SetTaskStatus(id int64, status models.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tasks[id]; ok {
		t.Status = status
		f.tasks[id] = t
	}
}

// Calls returns recorded calls, optionally filtered by method.
func (f *FakeAPI) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Polls returns how many status requests were made for id.
func (f *FakeAPI) Polls(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[id]
}

// Lists returns how many list requests were made.
func (f *FakeAPI) Lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *FakeAPI) record(c Call) error {
	f.calls = append(f.calls, c)
	return f.errs[c.Method]
}

func (f *FakeAPI) List(ctx context.Context, opts models.ListOpts) (*models.TaskPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if err := f.record(Call{Method: "List"}); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(f.tasks))
	for id := range f.tasks {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	page := &models.TaskPage{Count: len(ids)}
	if opts.Limit > 0 {
		start := min(max(opts.Page-1, 0)*opts.Limit, len(ids))
		ids = ids[start:min(start+opts.Limit, len(ids))]
	}
	for _, id := range ids {
		page.Tasks = append(page.Tasks, f.tasks[id])
	}
	return page, nil
}

func (f *FakeAPI) Status(ctx context.Context, id int64) (*models.StatusReport, error) {
	f.mu.Lock()
	f.polls[id]++
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "Status", IDs: []int64{id}}); err != nil {
		return nil, err
	}
	if script := f.statuses[id]; len(script) > 0 {
		status := script[0]
		if len(script) > 1 {
			f.statuses[id] = script[1:]
		}
		return &models.StatusReport{Status: status}, nil
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, &shared.APIError{Method: "Status", Code: 1, Msg: "task not found"}
	}
	return &models.StatusReport{Status: t.Status, Result: t.Result}, nil
}

func (f *FakeAPI) Create(ctx context.Context, task models.NewTask) error {
	return f.create("Create", []models.NewTask{task})
}

func (f *FakeAPI) BatchCreate(ctx context.Context, tasks []models.NewTask) error {
	return f.create("BatchCreate", tasks)
}

func (f *FakeAPI) create(method string, tasks []models.NewTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: method, Tasks: slices.Clone(tasks)}); err != nil {
		return err
	}
	for _, t := range tasks {
		f.nextID++
		f.tasks[f.nextID] = models.Task{ID: f.nextID, Name: t.Name, URL: t.URL, Status: models.StatusWaiting}
	}
	return nil
}

func (f *FakeAPI) Start(ctx context.Context, id int64) error {
	return f.start("Start", []int64{id})
}

func (f *FakeAPI) BatchStart(ctx context.Context, ids []int64) error {
	return f.start("BatchStart", ids)
}

func (f *FakeAPI) start(method string, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: method, IDs: slices.Clone(ids)}); err != nil {
		return err
	}
	for _, id := range ids {
		if t, ok := f.tasks[id]; ok && t.Status.Waiting() {
			t.Status = models.StatusRunning
			f.tasks[id] = t
		}
	}
	return nil
}

func (f *FakeAPI) Delete(ctx context.Context, id int64) error {
	return f.remove("Delete", []int64{id})
}

func (f *FakeAPI) BatchDelete(ctx context.Context, ids []int64) error {
	return f.remove("BatchDelete", ids)
}

func (f *FakeAPI) remove(method string, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: method, IDs: slices.Clone(ids)}); err != nil {
		return err
	}
	for _, id := range ids {
		delete(f.tasks, id)
	}
	return nil
}

// RecordingPresenter answers confirmations with Answer and records everything else.
type RecordingPresenter struct {
	mu         sync.Mutex
	answer     bool
	confirmErr error
	prompts    []string
	notices    []models.Notice
	closed     int
}

func NewRecordingPresenter(answer bool) *RecordingPresenter {
	return &RecordingPresenter{answer: answer}
}

// FailConfirm makes Confirm return err.
func (p *RecordingPresenter) FailConfirm(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmErr = err
}

func (p *RecordingPresenter) Confirm(ctx context.Context, prompt string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	return p.answer, p.confirmErr
}

func (p *RecordingPresenter) Notify(n models.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, n)
}

func (p *RecordingPresenter) CloseForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
}

func (p *RecordingPresenter) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.prompts)
}

func (p *RecordingPresenter) Notices() []models.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.notices)
}

// Last returns the most recent notice, or the zero value.
func (p *RecordingPresenter) Last() models.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.notices) == 0 {
		return models.Notice{}
	}
	return p.notices[len(p.notices)-1]
}

func (p *RecordingPresenter) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Eventually polls cond until it holds or timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, format string, args ...any) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met after %v: %s", timeout, fmt.Sprintf(format, args...))
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
