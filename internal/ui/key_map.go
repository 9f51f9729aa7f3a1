package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
)

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	toggle      key.Binding
	selectAll   key.Binding
	start       key.Binding
	batchStart  key.Binding
	remove      key.Binding
	batchRemove key.Binding
	create      key.Binding
	batchCreate key.Binding
	reload      key.Binding
	help        key.Binding
	quit        key.Binding

	yes    key.Binding
	no     key.Binding
	next   key.Binding
	submit key.Binding
	back   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		selectAll:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		start:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		batchStart:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "start selected")),
		remove:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		batchRemove: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete selected")),
		create:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		batchCreate: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "batch new")),
		reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		yes:    key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "yes")),
		no:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		next:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		submit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.start, k.batchStart, k.create, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.selectAll, k.reload},
		{k.start, k.batchStart, k.remove, k.batchRemove},
		{k.create, k.batchCreate},
		{k.help, k.quit},
	}
}

// listKeyMap drops the list's letter paging keys, which collide with the task actions.
func listKeyMap() list.KeyMap {
	km := list.DefaultKeyMap()
	km.PrevPage = key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h/pgup", "prev page"))
	km.NextPage = key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l/pgdn", "next page"))
	km.ShowFullHelp.SetEnabled(false)
	km.CloseFullHelp.SetEnabled(false)
	km.Quit.SetEnabled(false)
	return km
}
