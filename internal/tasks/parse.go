package tasks

import (
	"strings"

	"github.com/desertthunder/taskdeck/internal/models"
)

// ParseBatch reads one "name - url" task per line.
//
// Only the first dash separates the name from the url, so urls may contain dashes.
// Blank lines, lines without a dash, and lines with an empty side are skipped.
func ParseBatch(text string) []models.NewTask {
	var tasks []models.NewTask
	for line := range strings.SplitSeq(text, "\n") {
		name, url, ok := strings.Cut(strings.TrimSpace(line), "-")
		if !ok {
			continue
		}
		task := models.NewTask{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)}
		if task.Name == "" || task.URL == "" {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks
}
