package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	ToggleLogs key.Binding
	Back       key.Binding
	Reload     key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Course actions
	Confirm      key.Binding
	Toggle       key.Binding
	Play         key.Binding
	Resume       key.Binding
	AutoComplete key.Binding

	// Activity log
	ToggleFollow key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Activity log"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to course"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reload"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Previous lecture"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Next lecture"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "First lecture"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Last lecture"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Continue / play"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "c"),
			key.WithHelp("space/c", "Toggle completed"),
		),
		Play: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Play lecture"),
		),
		Resume: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Jump to last position"),
		),
		AutoComplete: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Toggle auto-complete"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle follow mode"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Back},
		{k.Confirm, k.Toggle, k.Play, k.Resume, k.AutoComplete, k.Reload},
		{k.ToggleLogs, k.ToggleFollow},
		{k.CycleTheme, k.Help, k.Quit},
	}
}

// detailHelp is the command bar on the course page.
func (k keyMap) detailHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Reload, k.ToggleLogs, k.Help, k.Quit}
}

// progressHelp is the command bar on the lecture screen.
func (k keyMap) progressHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Toggle, k.Play, k.Resume, k.Back, k.Help, k.Quit}
}
