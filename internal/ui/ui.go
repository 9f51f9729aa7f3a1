package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TaskListView ViewState = iota
	ConfirmView
	CreateView
	BatchCreateView
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	prev   ViewState
	engine *tasks.Engine
	width  int
	height int

	taskList list.Model
	selected map[int64]bool

	prompt string
	reply  chan<- bool

	nameInput  textinput.Model
	urlInput   textinput.Model
	batchInput textarea.Model

	notice models.Notice
	help   help.Model
	keys   keyMap
}

// NewModel creates a board over engine. Operations run with ctx.
func NewModel(ctx context.Context, engine *tasks.Engine) *Model {
	taskList := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	taskList.Title = "Tasks"
	taskList.KeyMap = listKeyMap()
	taskList.SetShowHelp(false)

	name := textinput.New()
	name.Prompt = "Name: "
	name.Placeholder = "nightly report"
	url := textinput.New()
	url.Prompt = "URL:  "
	url.Placeholder = "https://example.com/hook"

	batch := textarea.New()
	batch.ShowLineNumbers = false
	batch.Placeholder = "name-url, one per line"

	return &Model{
		ctx:        ctx,
		view:       TaskListView,
		engine:     engine,
		taskList:   taskList,
		selected:   make(map[int64]bool),
		nameInput:  name,
		urlInput:   url,
		batchInput: batch,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init loads the task list and resumes watching running tasks.
func (m *Model) Init() tea.Cmd {
	return m.run(tasks.ActionLoad, func(ctx context.Context) error {
		_, err := m.engine.Resume(ctx)
		return err
	})
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.taskList.SetSize(msg.Width-4, msg.Height-6)
		m.batchInput.SetWidth(msg.Width - 4)
		m.help.Width = msg.Width
		return m, nil

	case tasksChangedMsg:
		return m, m.setTasks(msg.tasks)

	case noticeMsg:
		m.notice = msg.notice
		return m, nil

	case closeFormMsg:
		if m.view == CreateView || m.view == BatchCreateView {
			m.closeForm()
		}
		return m, nil

	case confirmRequestMsg:
		if m.reply != nil {
			m.answer(false)
		}
		m.prev = m.view
		m.view = ConfirmView
		m.prompt = msg.prompt
		m.reply = msg.reply
		return m, nil

	case opDoneMsg:
		return m, m.setTasks(m.engine.Store().All())

	case tea.KeyMsg:
		switch m.view {
		case TaskListView:
			return m.handleListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case CreateView:
			return m.handleCreateKeys(msg)
		case BatchCreateView:
			return m.handleBatchKeys(msg)
		}
	}

	return m.updateActive(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case TaskListView:
		return m.renderTaskList()
	case ConfirmView:
		return m.renderConfirm()
	case CreateView:
		return m.renderCreate()
	case BatchCreateView:
		return m.renderBatchCreate()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.taskList.FilterState() == list.Filtering {
		return m.updateActive(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.engine.Scheduler().CancelAll()
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if t, ok := m.current(); ok {
			m.selected[t.ID] = !m.selected[t.ID]
			if !m.selected[t.ID] {
				delete(m.selected, t.ID)
			}
			return m, m.refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.selectAll):
		m.toggleAll()
		return m, m.refresh()
	case key.Matches(msg, m.keys.reload):
		return m, m.run(tasks.ActionLoad, m.engine.Reload)
	case key.Matches(msg, m.keys.start):
		if t, ok := m.current(); ok {
			return m, m.run(tasks.ActionStart, func(ctx context.Context) error { return m.engine.Start(ctx, t.ID) })
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if t, ok := m.current(); ok {
			return m, m.run(tasks.ActionDelete, func(ctx context.Context) error { return m.engine.Delete(ctx, t.ID) })
		}
		return m, nil
	case key.Matches(msg, m.keys.batchStart):
		sel := m.selection()
		return m, m.run(tasks.ActionBatchStart, func(ctx context.Context) error { return m.engine.BatchStart(ctx, sel) })
	case key.Matches(msg, m.keys.batchRemove):
		sel := m.selection()
		return m, m.run(tasks.ActionBatchDelete, func(ctx context.Context) error { return m.engine.BatchDelete(ctx, sel) })
	case key.Matches(msg, m.keys.create):
		m.view = CreateView
		m.urlInput.Blur()
		return m, m.nameInput.Focus()
	case key.Matches(msg, m.keys.batchCreate):
		m.view = BatchCreateView
		return m, m.batchInput.Focus()
	}

	return m.updateActive(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.answer(true)
	case key.Matches(msg, m.keys.no), msg.String() == "q", msg.String() == "ctrl+c":
		m.answer(false)
	}
	return m, nil
}

func (m *Model) handleCreateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.switchField()
	case msg.Type == tea.KeyEnter:
		if m.nameInput.Focused() {
			return m, m.switchField()
		}
		task := models.NewTask{Name: m.nameInput.Value(), URL: m.urlInput.Value()}
		return m, m.run(tasks.ActionCreate, func(ctx context.Context) error { return m.engine.Create(ctx, task) })
	}
	return m.updateActive(msg)
}

func (m *Model) handleBatchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.keys.submit):
		text := m.batchInput.Value()
		return m, m.run(tasks.ActionBatchCreate, func(ctx context.Context) error { return m.engine.BatchCreate(ctx, text) })
	}
	return m.updateActive(msg)
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TaskListView:
		m.taskList, cmd = m.taskList.Update(msg)
	case CreateView:
		if m.nameInput.Focused() {
			m.nameInput, cmd = m.nameInput.Update(msg)
		} else {
			m.urlInput, cmd = m.urlInput.Update(msg)
		}
	case BatchCreateView:
		m.batchInput, cmd = m.batchInput.Update(msg)
	}
	return m, cmd
}

// run executes op off the update loop. Failures have already been reported as
// notices by the engine, so the result only triggers a refresh.
func (m *Model) run(action string, op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{action: action, err: op(ctx)}
	}
}

func (m *Model) answer(ok bool) {
	if m.reply != nil {
		m.reply <- ok
		m.reply = nil
	}
	m.prompt = ""
	m.view = m.prev
}

func (m *Model) switchField() tea.Cmd {
	if m.nameInput.Focused() {
		m.nameInput.Blur()
		return m.urlInput.Focus()
	}
	m.urlInput.Blur()
	return m.nameInput.Focus()
}

func (m *Model) closeForm() {
	m.nameInput.Reset()
	m.urlInput.Reset()
	m.nameInput.Blur()
	m.urlInput.Blur()
	m.batchInput.Reset()
	m.batchInput.Blur()
	m.view = TaskListView
}

// setTasks replaces the list items, dropping selections for tasks that are gone.
func (m *Model) setTasks(all []models.Task) tea.Cmd {
	present := make(map[int64]bool, len(all))
	for _, t := range all {
		present[t.ID] = true
	}
	for id := range m.selected {
		if !present[id] {
			delete(m.selected, id)
		}
	}
	return m.setItems(all)
}

// refresh redraws the current items with updated selection marks.
func (m *Model) refresh() tea.Cmd {
	items := m.taskList.Items()
	all := make([]models.Task, 0, len(items))
	for _, it := range items {
		all = append(all, it.(taskItem).task)
	}
	return m.setItems(all)
}

func (m *Model) setItems(all []models.Task) tea.Cmd {
	sched := m.engine.Scheduler()
	items := make([]list.Item, len(all))
	for i, t := range all {
		items[i] = taskItem{task: t, selected: m.selected[t.ID], watching: sched.Watching(t.ID)}
	}
	return m.taskList.SetItems(items)
}

func (m *Model) toggleAll() {
	items := m.taskList.Items()
	if len(m.selected) == len(items) {
		clear(m.selected)
		return
	}
	for _, it := range items {
		m.selected[it.(taskItem).task.ID] = true
	}
}

func (m *Model) current() (models.Task, bool) {
	if it, ok := m.taskList.SelectedItem().(taskItem); ok {
		return it.task, true
	}
	return models.Task{}, false
}

// selection returns the selected tasks as currently cached, in list order.
func (m *Model) selection() []models.Task {
	var out []models.Task
	for _, it := range m.taskList.Items() {
		t := it.(taskItem).task
		if m.selected[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func (m *Model) renderNotice() string {
	if m.notice.Message == "" {
		return ""
	}
	return styles.Level(m.notice.Level).Render(fmt.Sprintf("[%s] %s", m.notice.Action, m.notice.Message))
}

func (m *Model) renderTaskList() string {
	var b strings.Builder
	b.WriteString(m.taskList.View())
	b.WriteString("\n")
	if len(m.selected) > 0 {
		b.WriteString(styles.help.Render(fmt.Sprintf("%d selected", len(m.selected))))
		b.WriteString("  ")
	}
	b.WriteString(m.renderNotice())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(m.prompt)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n\n%s", title, helpView)
}

func (m *Model) renderCreate() string {
	title := styles.title.Render("New task")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.back})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s\n%s", title, m.nameInput.View(), m.urlInput.View(), m.renderNotice(), helpView)
}

func (m *Model) renderBatchCreate() string {
	title := styles.title.Render("Batch create")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s\n%s", title, m.batchInput.View(), m.renderNotice(), helpView)
}
