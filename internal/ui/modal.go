package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lectern/internal/viewer"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// signInPrompt replaces the course page for anonymous viewers.
type signInPrompt struct {
	courseID string
}

func (p signInPrompt) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil, false
	}
	switch {
	case key.Matches(k, keys.Quit):
		return p, tea.Quit, true
	case key.Matches(k, keys.Back), key.Matches(k, keys.Confirm):
		return p, nil, true
	}
	return p, nil, false
}

func (p signInPrompt) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(signInMessage))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Course " + p.courseID + " is only shown to signed-in viewers."))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Run "))
	b.WriteString(styles.AccentText.Render("lectern --token TOKEN " + p.courseID))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("or set "))
	b.WriteString(styles.AccentText.Render(viewer.TokenEnv))
	b.WriteString(styles.MutedText.Render("."))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter/esc close  q quit"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Warning)).
		Padding(1, 2).
		Width(56)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
