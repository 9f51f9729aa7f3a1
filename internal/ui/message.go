package ui

import (
	"github.com/desertthunder/taskdeck/internal/models"
)

// tasksChangedMsg carries a fresh snapshot of the engine's store.
type tasksChangedMsg struct {
	tasks []models.Task
}

// noticeMsg carries a notice emitted by the engine.
type noticeMsg struct {
	notice models.Notice
}

// closeFormMsg asks the model to dismiss the open creation form.
type closeFormMsg struct{}

// confirmRequestMsg opens the confirmation view. The answer goes to reply,
// which must be buffered so Update never blocks on it.
type confirmRequestMsg struct {
	prompt string
	reply  chan<- bool
}

// opDoneMsg reports the end of an engine operation started from the board.
type opDoneMsg struct {
	action string
	err    error
}
