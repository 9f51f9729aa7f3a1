package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/taskdeck/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	run   lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		run:   NewBold(t),
	}
}

// Status picks the style used for a task status label.
func (p *Palette) Status(s models.Status) lipgloss.Style {
	switch s {
	case models.StatusRunning:
		return p.run
	case models.StatusWaiting:
		return p.help
	case models.StatusFailed:
		return p.err
	default:
		return p.ok
	}
}

// Level picks the style used for a notice.
func (p *Palette) Level(l models.Level) lipgloss.Style {
	switch l {
	case models.LevelError:
		return p.err
	case models.LevelWarn:
		return p.warn
	default:
		return p.ok
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
