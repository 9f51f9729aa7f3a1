package ui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
	"github.com/desertthunder/taskdeck/internal/tasks"
	tu "github.com/desertthunder/taskdeck/internal/testing"
)

func boardTasks() []models.Task {
	return []models.Task{
		{ID: 1, Name: "one", URL: "http://1.test", Status: models.StatusWaiting},
		{ID: 2, Name: "two", URL: "http://2.test", Status: models.StatusRunning},
		{ID: 3, Name: "three", URL: "http://3.test", Status: models.StatusWaiting},
	}
}

// newTestModel returns a board whose list already shows the api's tasks.
func newTestModel(t *testing.T, api *tu.FakeAPI) (*Model, *tu.RecordingPresenter) {
	t.Helper()
	presenter := tu.NewRecordingPresenter(true)
	engine := tasks.NewEngine(api, presenter, tasks.Options{Interval: time.Hour})
	t.Cleanup(engine.Close)

	if err := engine.Store().Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	m := NewModel(context.Background(), engine)
	m.Update(opDoneMsg{})
	return m, presenter
}

func keyPress(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// exec runs cmd and feeds its message back into the model.
func exec(t *testing.T, m *Model, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	m.Update(msg)
	return msg
}

func TestTaskItem(t *testing.T) {
	result := 1
	item := taskItem{task: models.Task{ID: 7, Name: "report", URL: "http://r.test", Status: models.StatusFinished, Result: &result}}

	if got := item.Title(); got != "[ ] #7 report" {
		t.Errorf("expected unselected title, got %q", got)
	}
	if got := item.Description(); got != "finished • http://r.test • result 1" {
		t.Errorf("unexpected description %q", got)
	}

	item.selected, item.watching = true, true
	if got := item.Title(); got != "[x] #7 report" {
		t.Errorf("expected selected title, got %q", got)
	}
	if !strings.HasSuffix(item.Description(), "watching") {
		t.Errorf("expected watching marker, got %q", item.Description())
	}
	if item.FilterValue() != "report" {
		t.Errorf("expected filter on name, got %q", item.FilterValue())
	}
}

func TestModel(t *testing.T) {
	t.Run("snapshot populates the list", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI(boardTasks()...))

		if got := len(m.taskList.Items()); got != 3 {
			t.Fatalf("expected 3 items, got %d", got)
		}
		if !strings.Contains(m.View(), "#2 two") {
			t.Errorf("expected task in view, got:\n%s", m.View())
		}
	})

	t.Run("space toggles the current row", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI(boardTasks()...))

		m.Update(keyPress(" "))
		if !m.selected[1] {
			t.Fatal("expected task 1 to be selected")
		}
		if !m.taskList.Items()[0].(taskItem).selected {
			t.Error("expected item to be redrawn as selected")
		}

		m.Update(keyPress(" "))
		if len(m.selected) != 0 {
			t.Errorf("expected selection cleared, got %v", m.selected)
		}
	})

	t.Run("select all toggles every row", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI(boardTasks()...))

		m.Update(keyPress("a"))
		if len(m.selected) != 3 {
			t.Fatalf("expected 3 selected, got %d", len(m.selected))
		}
		m.Update(keyPress("a"))
		if len(m.selected) != 0 {
			t.Errorf("expected none selected, got %d", len(m.selected))
		}
	})

	t.Run("snapshot drops selections for removed tasks", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI(boardTasks()...))
		m.selected[1] = true
		m.selected[3] = true

		m.Update(tasksChangedMsg{tasks: boardTasks()[:1]})
		if !m.selected[1] || m.selected[3] {
			t.Errorf("expected only task 1 selected, got %v", m.selected)
		}
	})

	t.Run("batch start sends the waiting selection", func(t *testing.T) {
		api := tu.NewFakeAPI(boardTasks()...)
		m, _ := newTestModel(t, api)
		m.selected[1] = true
		m.selected[2] = true

		msg := exec(t, m, press(m, "S"))
		if done, ok := msg.(opDoneMsg); !ok || done.err != nil {
			t.Fatalf("expected successful opDoneMsg, got %#v", msg)
		}

		calls := api.Calls("BatchStart")
		if len(calls) != 1 || !slices.Equal(calls[0].IDs, []int64{1}) {
			t.Fatalf("expected one batch start for [1], got %+v", calls)
		}
		item := m.taskList.Items()[0].(taskItem)
		if item.task.Status != models.StatusRunning || !item.watching {
			t.Errorf("expected task 1 running and watched, got %+v", item)
		}
	})

	t.Run("batch delete with nothing selected sends nothing", func(t *testing.T) {
		api := tu.NewFakeAPI(boardTasks()...)
		m, presenter := newTestModel(t, api)

		msg := exec(t, m, press(m, "D"))
		if done := msg.(opDoneMsg); !errors.Is(done.err, shared.ErrNothingSelected) {
			t.Errorf("expected nothing selected error, got %v", done.err)
		}
		if len(api.Calls("BatchDelete")) != 0 {
			t.Error("expected no request")
		}
		if presenter.Last().Message != tasks.MsgSelectToDelete {
			t.Errorf("expected select notice, got %q", presenter.Last().Message)
		}
	})

	t.Run("single delete removes the current row", func(t *testing.T) {
		api := tu.NewFakeAPI(boardTasks()...)
		m, _ := newTestModel(t, api)

		exec(t, m, press(m, "d"))
		if got := len(m.taskList.Items()); got != 2 {
			t.Errorf("expected 2 items after delete, got %d", got)
		}
		if calls := api.Calls("Delete"); len(calls) != 1 || calls[0].IDs[0] != 1 {
			t.Errorf("expected delete of task 1, got %+v", calls)
		}
	})

	t.Run("keys go to the filter while filtering", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI(boardTasks()...))

		m.Update(keyPress("/"))
		m.Update(keyPress("d"))

		if m.taskList.FilterValue() != "d" {
			t.Errorf("expected filter text %q, got %q", "d", m.taskList.FilterValue())
		}
		if m.view != TaskListView {
			t.Errorf("expected list view, got %v", m.view)
		}
	})

	t.Run("quit cancels watches", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI(boardTasks()...))
		m.engine.Watch(2)

		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if len(m.engine.Scheduler().Active()) != 0 {
			t.Error("expected every watch cancelled")
		}
	})

	t.Run("notice is rendered", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI())
		m.Update(noticeMsg{notice: models.Notice{Level: models.LevelError, Action: "start", Message: "boom"}})

		if !strings.Contains(m.View(), "boom") {
			t.Errorf("expected notice in view, got:\n%s", m.View())
		}
	})
}

func TestConfirmView(t *testing.T) {
	t.Run("yes answers true and restores the view", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI())
		reply := make(chan bool, 1)

		m.Update(confirmRequestMsg{prompt: "Start 2 waiting task(s)?", reply: reply})
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Start 2 waiting task(s)?") {
			t.Errorf("expected prompt in view, got:\n%s", m.View())
		}

		m.Update(keyPress("y"))
		if !<-reply {
			t.Error("expected true")
		}
		if m.view != TaskListView {
			t.Errorf("expected list view, got %v", m.view)
		}
	})

	t.Run("esc answers false", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI())
		reply := make(chan bool, 1)

		m.Update(confirmRequestMsg{prompt: "Delete?", reply: reply})
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if <-reply {
			t.Error("expected false")
		}
	})

	t.Run("a second request declines the first", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI())
		first := make(chan bool, 1)
		second := make(chan bool, 1)

		m.Update(confirmRequestMsg{prompt: "first", reply: first})
		m.Update(confirmRequestMsg{prompt: "second", reply: second})

		if <-first {
			t.Error("expected first request declined")
		}
		if m.prompt != "second" || m.view != ConfirmView {
			t.Errorf("expected second prompt shown, got %q in %v", m.prompt, m.view)
		}
		m.Update(keyPress("y"))
		if !<-second {
			t.Error("expected second request confirmed")
		}
		if m.view != TaskListView {
			t.Errorf("expected list view, got %v", m.view)
		}
	})
}

func TestForms(t *testing.T) {
	t.Run("create form submits name and url", func(t *testing.T) {
		api := tu.NewFakeAPI()
		m, presenter := newTestModel(t, api)

		m.Update(keyPress("n"))
		if m.view != CreateView {
			t.Fatalf("expected create view, got %v", m.view)
		}
		m.Update(keyPress("alpha"))
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m.Update(keyPress("http://a.test"))

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		exec(t, m, cmd)

		calls := api.Calls("Create")
		if len(calls) != 1 || calls[0].Tasks[0] != (models.NewTask{Name: "alpha", URL: "http://a.test"}) {
			t.Fatalf("unexpected create calls %+v", calls)
		}
		if presenter.Closed() != 1 {
			t.Errorf("expected form close request, got %d", presenter.Closed())
		}

		m.Update(closeFormMsg{})
		if m.view != TaskListView || m.nameInput.Value() != "" {
			t.Errorf("expected closed and cleared form, got view %v name %q", m.view, m.nameInput.Value())
		}
		if len(m.taskList.Items()) != 1 {
			t.Errorf("expected created task listed, got %d items", len(m.taskList.Items()))
		}
	})

	t.Run("enter on the name field moves to url", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI())

		m.Update(keyPress("n"))
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if !m.urlInput.Focused() || m.nameInput.Focused() {
			t.Error("expected focus on url")
		}
	})

	t.Run("esc cancels the form", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI())

		m.Update(keyPress("n"))
		m.Update(keyPress("draft"))
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != TaskListView || m.nameInput.Value() != "" {
			t.Errorf("expected cancelled form, got view %v name %q", m.view, m.nameInput.Value())
		}
	})

	t.Run("batch form submits every line", func(t *testing.T) {
		api := tu.NewFakeAPI()
		m, _ := newTestModel(t, api)

		m.Update(keyPress("b"))
		if m.view != BatchCreateView {
			t.Fatalf("expected batch view, got %v", m.view)
		}
		m.batchInput.SetValue("x-http://x.test\nbroken\ny-http://y.test")

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
		exec(t, m, cmd)

		calls := api.Calls("BatchCreate")
		if len(calls) != 1 || len(calls[0].Tasks) != 2 {
			t.Fatalf("expected one batch create of 2 tasks, got %+v", calls)
		}
	})

	t.Run("close request is ignored outside forms", func(t *testing.T) {
		m, _ := newTestModel(t, tu.NewFakeAPI())
		reply := make(chan bool, 1)
		m.Update(confirmRequestMsg{prompt: "Delete?", reply: reply})

		m.Update(closeFormMsg{})
		if m.view != ConfirmView {
			t.Errorf("expected confirm view kept, got %v", m.view)
		}
	})
}

func TestBridge(t *testing.T) {
	b := NewBridge()

	_, err := b.Confirm(context.Background(), "Start?")
	if !errors.Is(err, errNoProgram) {
		t.Errorf("expected errNoProgram, got %v", err)
	}

	b.Notify(models.Notice{Message: "dropped"})
	b.CloseForm()
	b.TasksChanged(nil)
}

// press sends a key and returns the resulting command.
func press(m *Model, s string) tea.Cmd {
	_, cmd := m.Update(keyPress(s))
	return cmd
}
