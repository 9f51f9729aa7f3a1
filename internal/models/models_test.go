package models

import (
	"encoding/json"
	"testing"
)

func TestStatus(t *testing.T) {
	tc := []struct {
		status   Status
		running  bool
		waiting  bool
		terminal bool
	}{
		{StatusWaiting, false, true, true},
		{StatusRunning, true, false, false},
		{StatusFinished, false, false, true},
		{StatusFailed, false, false, true},
		{Status("cancelled"), false, false, true},
	}

	for _, tt := range tc {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.Running(); got != tt.running {
				t.Errorf("Running() = %v, want %v", got, tt.running)
			}
			if got := tt.status.Waiting(); got != tt.waiting {
				t.Errorf("Waiting() = %v, want %v", got, tt.waiting)
			}
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestEnvelope(t *testing.T) {
	t.Run("decodes task list", func(t *testing.T) {
		body := `{"code":0,"msg":"","count":1,"data":[{"id":3,"name":"a","url":"http://a","status":"waiting","result":null,"created_at":"2024-05-01 10:00:00"}]}`

		var env Envelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}
		if !env.OK() {
			t.Fatal("expected OK envelope")
		}
		if env.Count == nil || *env.Count != 1 {
			t.Errorf("expected count 1, got %v", env.Count)
		}

		var tasks []Task
		if err := env.Decode(&tasks); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
		if len(tasks) != 1 || tasks[0].ID != 3 || tasks[0].Status != StatusWaiting {
			t.Errorf("unexpected tasks: %+v", tasks)
		}
		if tasks[0].Created().IsZero() {
			t.Error("expected created_at to parse")
		}
		if tasks[0].ResultString() != "-" {
			t.Errorf("expected '-' for null result, got %s", tasks[0].ResultString())
		}
	})

	t.Run("missing data is not an error", func(t *testing.T) {
		env := Envelope{Code: 1, Msg: "task not found"}
		var report StatusReport
		if err := env.Decode(&report); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if env.OK() {
			t.Error("non-zero code must not be OK")
		}
	})

	t.Run("malformed data", func(t *testing.T) {
		env := Envelope{Data: json.RawMessage(`"oops"`)}
		var report StatusReport
		if err := env.Decode(&report); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestNewTaskValidate(t *testing.T) {
	if err := (NewTask{Name: "a", URL: "http://a"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (NewTask{Name: " ", URL: "http://a"}).Validate(); err == nil {
		t.Error("expected error for blank name")
	}
	if err := (NewTask{Name: "a"}).Validate(); err == nil {
		t.Error("expected error for missing url")
	}
}

func TestNoticeValidate(t *testing.T) {
	n := &Notice{Level: LevelInfo, Action: "start", Message: "started"}
	if err := n.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	n.Level = "loud"
	if err := n.Validate(); err == nil {
		t.Error("expected error for unknown level")
	}
}
