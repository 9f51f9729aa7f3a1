package ui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/tasks"
)

var _ tasks.Presenter = (*Bridge)(nil)

var errNoProgram = errors.New("no program attached")

// Bridge implements [tasks.Presenter] on top of a running [tea.Program].
//
// The engine calls it from command and polling goroutines; every call becomes a
// message for [Model.Update]. Calls made before [Bridge.Attach] are dropped, and
// Confirm fails.
type Bridge struct {
	mu      sync.RWMutex
	program *tea.Program
}

func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach sets the program that receives messages.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = p
}

func (b *Bridge) send(msg tea.Msg) bool {
	b.mu.RLock()
	p := b.program
	b.mu.RUnlock()
	if p == nil {
		return false
	}
	p.Send(msg)
	return true
}

// Confirm shows prompt in the confirmation view and waits for an answer.
func (b *Bridge) Confirm(ctx context.Context, prompt string) (bool, error) {
	reply := make(chan bool, 1)
	if !b.send(confirmRequestMsg{prompt: prompt, reply: reply}) {
		return false, errNoProgram
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (b *Bridge) Notify(n models.Notice) {
	b.send(noticeMsg{notice: n})
}

func (b *Bridge) CloseForm() {
	b.send(closeFormMsg{})
}

// TasksChanged forwards a store snapshot. Register it with [tasks.Store.OnChange].
func (b *Bridge) TasksChanged(snapshot []models.Task) {
	b.send(tasksChangedMsg{tasks: snapshot})
}
