// Package ui implements the interactive task board using bubbletea's Elm architecture.
//
// The board has four views:
//  1. [TaskListView] : Browse tasks, toggle selection and trigger actions
//  2. [ConfirmView] : Answer a confirmation raised by the engine
//  3. [CreateView] : Fill in the name and url of one task
//  4. [BatchCreateView] : Paste "name-url" lines for a batch create
//
// The (view) [Model] never talks to the server itself. Every action runs as a
// [tea.Cmd] against a [tasks.Engine], and the engine reaches back into the
// program through a [Bridge], which turns confirmations, notices and task list
// changes into messages.
//
// Keyboard navigation keeps the list's vim-style movement (j/k, g/G, /) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
