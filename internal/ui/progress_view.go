package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lectern/internal/progress"
)

// renderProgress renders the lecture list beside the current lecture.
func (m Model) renderProgress() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	v := m.view

	if len(v.Lectures) == 0 {
		switch v.Phase {
		case progress.PhaseFailed:
			return m.renderBox("Lectures", m.renderLoadFailure(v.Err, styles), m.width, height, false)
		case progress.PhaseReady:
			return m.renderBox("Lectures", styles.MutedText.Render("This course has no lectures yet."), m.width, height, false)
		default:
			return m.renderBox("Lectures", styles.MutedText.Render("Loading lectures..."), m.width, height, false)
		}
	}

	if m.width < LayoutCompactWidth {
		listHeight := maxInt(height/2, 3)
		list := m.renderBox("Lectures", m.lectureList(m.width-4, listHeight-2), m.width, listHeight, true)
		panel := m.renderBox("Lecture", m.lecturePanel(m.width-4), m.width, height-listHeight, false)
		return lipgloss.JoinVertical(lipgloss.Left, list, panel)
	}

	listWidth := LayoutListWidth
	list := m.renderBox("Lectures", m.lectureList(listWidth-4, height-2), listWidth, height, true)
	panel := m.renderBox("Lecture", m.lecturePanel(m.width-listWidth-4), m.width-listWidth, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, list, panel)
}

// lectureList renders the visible window of lecture rows around the selection.
func (m Model) lectureList(width, rows int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	v := m.view

	selected := 0
	for i, row := range v.Lectures {
		if row.Selected {
			selected = i
			break
		}
	}
	rows = maxInt(rows, 1)
	start := 0
	if selected >= rows {
		start = selected - rows + 1
	}
	end := start + rows
	if end > len(v.Lectures) {
		end = len(v.Lectures)
	}

	lines := make([]string, 0, end-start)
	for _, row := range v.Lectures[start:end] {
		badge := m.rowBadge(row, v.Entitled)
		title := fmt.Sprintf("%2d. %s", row.Ordinal, plainLine(row.Lecture.DisplayTitle()))
		title = padRight(truncate(title, width-4), width-4)
		if row.Selected {
			lines = append(lines, styles.Selected.Render("› "+title)+" "+badge)
			continue
		}
		lines = append(lines, styles.Text.Render("  "+title)+" "+badge)
	}
	return strings.Join(lines, "\n")
}

// rowBadge is the one-cell state marker at the end of a lecture row.
func (m Model) rowBadge(row progress.LectureView, entitled bool) string {
	status := lectureStatus(row, entitled)
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.StatusColors[status])).
		Background(lipgloss.Color(m.theme.FocusBg))
	switch status {
	case statusLocked:
		return style.Render("-")
	case statusPending:
		return style.Render("…")
	case statusViewed:
		return style.Render("✓")
	case statusNoVideo:
		return style.Render("∅")
	default:
		return style.Render("·")
	}
}

// lecturePanel renders the current lecture with its actions.
func (m Model) lecturePanel(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	v := m.view
	wrap := lipgloss.NewStyle().Width(maxInt(width, 10))

	var b strings.Builder
	if v.Phase == progress.PhaseFailed && v.Err != nil {
		b.WriteString(styles.DangerText.Render(loadFailMessage))
		b.WriteString("\n")
		b.WriteString(wrap.Render(styles.MutedText.Render(plainLine(v.Err.Error()))))
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("Press R to retry"))
		b.WriteString("\n\n")
	}

	if !v.HasCurrent {
		b.WriteString(styles.MutedText.Render("Select a lecture"))
		return b.String()
	}
	cur := v.Current

	b.WriteString(styles.Text.Bold(true).Render(wrap.Render(lectureHeading(cur))))
	b.WriteString("\n\n")

	if cur.Lecture.HasVideo() {
		b.WriteString(styles.MutedText.Render("Video "))
		b.WriteString(styles.AccentText.Render(truncateMiddle(plainLine(cur.Lecture.VideoURL), maxInt(width-6, 10))))
	} else {
		b.WriteString(styles.WarningText.Render(noVideoMessage))
	}
	b.WriteString("\n\n")

	if !v.Entitled {
		b.WriteString(styles.StatusStyle(statusLocked).Render("Locked"))
		b.WriteString("\n\n")
		b.WriteString(wrap.Render(styles.WarningText.Render(purchaseHint)))
		return b.String()
	}

	switch {
	case cur.Pending:
		b.WriteString(styles.StatusStyle(statusPending).Render("Saving"))
		b.WriteString("\n\n")
	case cur.Unsaved:
		b.WriteString(styles.StatusStyle(statusFailed).Render("Not saved"))
		b.WriteString(styles.FaintText.Render(" press R to reload from the server"))
		b.WriteString("\n\n")
	case cur.Viewed:
		b.WriteString(styles.StatusStyle(statusViewed).Render("Completed"))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.WarningText.Render("[space] "))
	b.WriteString(styles.Text.Render(toggleLabel(cur.Viewed)))
	if cur.Playable {
		b.WriteString("\n")
		b.WriteString(styles.WarningText.Render("[p] "))
		b.WriteString(styles.Text.Render("Play lecture"))
		if m.prefs.AutoComplete && !cur.Viewed {
			b.WriteString(styles.FaintText.Render(" (marks it completed)"))
		}
	}
	return b.String()
}

// lectureHeading is "Lecture N : title".
func lectureHeading(row progress.LectureView) string {
	return fmt.Sprintf("Lecture %d : %s", row.Ordinal, plainLine(row.Lecture.DisplayTitle()))
}

// toggleLabel names the action the toggle key performs.
func toggleLabel(viewed bool) string {
	return ternary(viewed, "Mark as incomplete", "Mark as completed")
}

// lectureStatus picks the status color key for a lecture row.
func lectureStatus(row progress.LectureView, entitled bool) string {
	switch {
	case !entitled:
		return statusLocked
	case row.Pending:
		return statusPending
	case row.Viewed:
		return statusViewed
	case !row.Lecture.HasVideo():
		return statusNoVideo
	default:
		return statusUnviewed
	}
}
