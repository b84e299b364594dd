package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders text segments that share one background, so the gaps
// between styled segments keep the panel color.
type BgStyle struct {
	bg    lipgloss.Color
	space string // cached styled space
}

// NewBgStyle creates a new background style helper for the given color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render applies style and the background to every rune of text, spaces included.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}

	// If no spaces, simple render with background
	if !strings.Contains(text, " ") {
		return style.Background(b.bg).Render(text)
	}

	// Split on spaces, style each word, rejoin with styled spaces
	wordStyle := style.Background(b.bg)
	words := strings.Split(text, " ")
	result := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			result = append(result, wordStyle.Render(w))
		} else {
			// Preserve multiple consecutive spaces
			result = append(result, "")
		}
	}
	return strings.Join(result, b.space)
}

// Space returns a single styled space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n styled spaces.
func (b BgStyle) Spaces(n int) string {
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Sep returns a styled separator string.
func (b BgStyle) Sep(sep string) string {
	return lipgloss.NewStyle().Background(b.bg).Render(sep)
}

// Join joins parts with a styled separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}

// FillLine pads rendered content to fill the specified width with the background color.
// Use this to ensure lines fill the full viewport width.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}

// renderBox draws content inside a rounded border with the title set into
// the top edge. Focused boxes use the focus border and background.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	border := m.theme.Border
	bg := m.theme.Surface
	if focused {
		border = m.theme.BorderFocus
		bg = m.theme.FocusBg
	}
	width = maxInt(width, 4)
	height = maxInt(height, 3)

	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		BorderBackground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(bg)).
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(content)

	if title == "" {
		return body
	}
	label := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Accent)).
		Background(lipgloss.Color(m.theme.Background)).
		Bold(true).
		Render(" " + truncate(title, width-6) + " ")

	lines := strings.SplitN(body, "\n", 2)
	corner := lipgloss.NewStyle().
		Foreground(lipgloss.Color(border)).
		Background(lipgloss.Color(m.theme.Background))
	top := corner.Render("╭─") + label
	fill := width - lipgloss.Width(top) - 1
	if fill > 0 {
		top += corner.Render(strings.Repeat("─", fill))
	}
	top += corner.Render("╮")
	if len(lines) == 1 {
		return top
	}
	return top + "\n" + lines[1]
}
