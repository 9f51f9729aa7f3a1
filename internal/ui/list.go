package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/taskdeck/internal/models"
)

var _ list.Item = taskItem{}

// taskItem wraps [models.Task] to implement [list.Item].
type taskItem struct {
	task     models.Task
	selected bool
	watching bool
}

func (i taskItem) FilterValue() string { return i.task.Name }

func (i taskItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	return fmt.Sprintf("%s #%d %s", mark, i.task.ID, i.task.Name)
}

func (i taskItem) Description() string {
	desc := fmt.Sprintf("%s • %s • result %s", i.task.Status, i.task.URL, i.task.ResultString())
	if i.watching {
		desc += " • watching"
	}
	return desc
}
