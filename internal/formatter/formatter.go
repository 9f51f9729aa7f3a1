// package formatter renders task lists and journal notices as text tables, JSON, CSV and Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
)

// Format names an output format.
type Format string

const (
	Text     Format = "text"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
)

// Formats lists every supported format, for flag help.
var Formats = []Format{Text, JSON, CSV, Markdown}

// ParseFormat accepts a format name, case-insensitively. "md" is an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, JSON, CSV, Markdown:
		return f, nil
	case "md":
		return Markdown, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

var taskHeaders = []string{"ID", "Name", "URL", "Status", "Result", "Created"}

func taskRow(t models.Task) []string {
	return []string{strconv.FormatInt(t.ID, 10), t.Name, t.URL, t.Status.String(), t.ResultString(), t.CreatedAt}
}

var noticeHeaders = []string{"#", "Time", "Level", "Action", "Tasks", "Message"}

func noticeRow(n models.Notice) []string {
	return []string{
		strconv.Itoa(n.Sequence),
		n.CreatedAt.Local().Format(models.TimeLayout),
		string(n.Level),
		n.Action,
		shared.FormatIDs(n.TaskIDs),
		n.Message,
	}
}

// TasksToText renders tasks as a bordered table followed by a total line.
func TasksToText(tasks []models.Task) []byte {
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = taskRow(t)
	}
	return renderTable(taskHeaders, rows, fmt.Sprintf("%d task(s)", len(tasks)))
}

// TasksToCSV converts tasks to CSV with columns: ID, Name, URL, Status, Result, Created
func TasksToCSV(tasks []models.Task) ([]byte, error) {
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = taskRow(t)
	}
	return writeCSV(taskHeaders, rows)
}

// TasksToMarkdown converts tasks to a Markdown document with a status summary and a table.
func TasksToMarkdown(tasks []models.Task) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Tasks\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %d\n", len(tasks)))
	for _, s := range statusCounts(tasks) {
		buf.WriteString(fmt.Sprintf("**%s**: %d\n", s.status, s.count))
	}
	buf.WriteString("\n")

	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = taskRow(t)
	}
	writeMarkdownTable(&buf, taskHeaders, rows)
	return buf.Bytes()
}

// TasksToJSON renders tasks as an indented JSON array.
func TasksToJSON(tasks []models.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	return json.MarshalIndent(tasks, "", "  ")
}

// NoticesToText renders journal notices as a bordered table.
func NoticesToText(notices []models.Notice) []byte {
	rows := make([][]string, len(notices))
	for i, n := range notices {
		rows[i] = noticeRow(n)
	}
	return renderTable(noticeHeaders, rows, fmt.Sprintf("%d notice(s)", len(notices)))
}

// NoticesToCSV converts notices to CSV; task ids are comma separated inside one field.
func NoticesToCSV(notices []models.Notice) ([]byte, error) {
	rows := make([][]string, len(notices))
	for i, n := range notices {
		rows[i] = noticeRow(n)
	}
	return writeCSV(noticeHeaders, rows)
}

func NoticesToMarkdown(notices []models.Notice) []byte {
	var buf bytes.Buffer
	buf.WriteString("# History\n\n")

	rows := make([][]string, len(notices))
	for i, n := range notices {
		rows[i] = noticeRow(n)
	}
	writeMarkdownTable(&buf, noticeHeaders, rows)
	return buf.Bytes()
}

type noticeJSON struct {
	Sequence int     `json:"sequence"`
	Time     string  `json:"time"`
	Level    string  `json:"level"`
	Action   string  `json:"action"`
	TaskIDs  []int64 `json:"task_ids"`
	Message  string  `json:"message"`
}

func NoticesToJSON(notices []models.Notice) ([]byte, error) {
	out := make([]noticeJSON, len(notices))
	for i, n := range notices {
		ids := n.TaskIDs
		if ids == nil {
			ids = []int64{}
		}
		out[i] = noticeJSON{
			Sequence: n.Sequence,
			Time:     n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Level:    string(n.Level),
			Action:   n.Action,
			TaskIDs:  ids,
			Message:  n.Message,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// WriteTasks renders tasks in format to w.
func WriteTasks(w io.Writer, format Format, tasks []models.Task) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case JSON:
		data, err = TasksToJSON(tasks)
	case CSV:
		data, err = TasksToCSV(tasks)
	case Markdown:
		data = TasksToMarkdown(tasks)
	default:
		data = TasksToText(tasks)
	}
	if err != nil {
		return fmt.Errorf("failed to render tasks: %w", err)
	}
	return write(w, data)
}

// WriteNotices renders notices in format to w.
func WriteNotices(w io.Writer, format Format, notices []models.Notice) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case JSON:
		data, err = NoticesToJSON(notices)
	case CSV:
		data, err = NoticesToCSV(notices)
	case Markdown:
		data = NoticesToMarkdown(notices)
	default:
		data = NoticesToText(notices)
	}
	if err != nil {
		return fmt.Errorf("failed to render notices: %w", err)
	}
	return write(w, data)
}

// WriteTasksFile writes tasks to path, creating or truncating it.
func WriteTasksFile(path string, format Format, tasks []models.Task) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteTasks(f, format, tasks); err != nil {
		return err
	}
	return f.Close()
}

func write(w io.Writer, data []byte) error {
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func renderTable(headers []string, rows [][]string, footer string) []byte {
	if len(rows) == 0 {
		return []byte("No entries.\n")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return []byte(t.String() + "\n" + footer + "\n")
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func writeMarkdownTable(buf *bytes.Buffer, headers []string, rows [][]string) {
	buf.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.ReplaceAll(cell, "|", `\|`)
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

type statusCount struct {
	status models.Status
	count  int
}

// statusCounts tallies tasks per status in first-seen order.
func statusCounts(tasks []models.Task) []statusCount {
	var counts []statusCount
	index := make(map[models.Status]int)
	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			i = len(counts)
			index[t.Status] = i
			counts = append(counts, statusCount{status: t.Status})
		}
		counts[i].count++
	}
	return counts
}
