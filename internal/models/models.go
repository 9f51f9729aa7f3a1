package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is a task state as reported by the server.
//
// Terminal labels are server-defined; only waiting and running carry meaning for the client.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

// Running reports whether a watch on a task in this state should keep polling.
func (s Status) Running() bool { return s == StatusRunning }

// Waiting reports whether the task may be started.
func (s Status) Waiting() bool { return s == StatusWaiting }

// Terminal reports whether the status ends a watch.
func (s Status) Terminal() bool { return !s.Running() }

func (s Status) String() string { return string(s) }

// TimeLayout is the created_at format used by the task server.
const TimeLayout = "2006-01-02 15:04:05"

// Task represents one background job as known to the client.
type Task struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Status    Status `json:"status"`
	Result    *int   `json:"result"`
	CreatedAt string `json:"created_at"`
}

// Created parses CreatedAt, returning the zero time when it is missing or malformed.
func (t Task) Created() time.Time {
	ts, err := time.Parse(TimeLayout, t.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// ResultString renders the nullable result column.
func (t Task) ResultString() string {
	if t.Result == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *t.Result)
}

// ListOpts selects a page of /task/list. A zero Limit requests everything.
type ListOpts struct {
	Page  int
	Limit int
}

// TaskPage is one response of /task/list.
type TaskPage struct {
	Tasks []Task
	Count int // Total rows on the server; equals len(Tasks) when the server omits it
}

// NewTask is the payload for creating one task.
type NewTask struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Validate reports whether both fields are present after trimming.
func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("task name is required")
	}
	if strings.TrimSpace(n.URL) == "" {
		return fmt.Errorf("task url is required")
	}
	return nil
}

// StatusReport is the data of a successful /task/{id}/status response.
type StatusReport struct {
	Status Status `json:"status"`
	Result *int   `json:"result"`
}

// Envelope is the wrapper used by every API response. Code 0 means success.
type Envelope struct {
	Code  int             `json:"code"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data,omitempty"`
	Count *int            `json:"count,omitempty"`
}

// OK reports whether the envelope signals success.
func (e Envelope) OK() bool { return e.Code == 0 }

// Decode unmarshals Data into v. An absent or null payload leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode envelope data: %w", err)
	}
	return nil
}

// IDsRequest is the body of batch start and batch delete.
type IDsRequest struct {
	TaskIDs []int64 `json:"task_ids"`
}

// BatchCreateRequest is the body of batch create.
type BatchCreateRequest struct {
	Tasks []NewTask `json:"tasks"`
}

// Level is the severity of a [Notice].
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is a user-visible message about an action on one or more tasks.
type Notice struct {
	ID        string    // Journal id, empty until persisted
	Sequence  int       // Journal ordering, zero until persisted
	Level     Level     // Severity
	Action    string    // Engine action that produced it, e.g. "batch_start"
	TaskIDs   []int64   // Affected tasks, may be empty
	Message   string    // Text shown to the operator
	CreatedAt time.Time // When the notice was emitted
}

// Validate checks the fields required for persistence.
func (n *Notice) Validate() error {
	switch n.Level {
	case LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("invalid notice level %q", n.Level)
	}
	if n.Action == "" {
		return fmt.Errorf("notice action is required")
	}
	if n.Message == "" {
		return fmt.Errorf("notice message is required")
	}
	return nil
}
