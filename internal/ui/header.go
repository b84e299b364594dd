package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lectern/internal/progress"
)

// renderHeader renders the status bar: logo, course, viewer and progress.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("lectern", styles.Logo)}

	title := plainLine(m.courseTitle())
	limit := 48
	if compact {
		limit = 24
	}
	parts = append(parts, bg.Render(truncate(title, limit), styles.Text.Bold(true)))

	if m.viewer.Authenticated() {
		parts = append(parts, bg.Render("●", styles.SuccessText)+bg.Space()+
			bg.Render(plainLine(m.viewer.DisplayName()), styles.MutedText))
	} else {
		parts = append(parts, bg.Render("○ Not signed in", styles.WarningText))
	}

	if m.screen == ScreenProgress && m.sync != nil {
		v := m.view
		phase := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColors[phaseStatus(v.Phase)]))
		parts = append(parts, bg.Render(titleCase(v.Phase.String()), phase))
		if v.Entitled && len(v.Lectures) > 0 {
			parts = append(parts,
				bg.Render("Completed:", styles.MutedText)+bg.Space()+
					bg.Render(fmt.Sprintf("%d/%d", v.Completed, len(v.Lectures)), styles.Text))
		}
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the key hints for the current screen.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)

	var bindings []key.Binding
	switch {
	case m.showLogs:
		bindings = []key.Binding{m.keys.ToggleFollow, m.keys.Top, m.keys.Bottom, m.keys.Back, m.keys.ToggleLogs}
	case m.screen == ScreenProgress:
		bindings = m.keys.progressHelp()
	default:
		bindings = m.keys.detailHelp()
	}

	h := m.help
	h.Styles.ShortKey = styles.WarningText
	h.Styles.ShortDesc = styles.MutedText
	h.Styles.ShortSeparator = styles.FaintText
	return styles.Footer.Width(m.width).Render(h.ShortHelpView(bindings))
}

// renderStatusLine shows the current notice, if any.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	if m.notice.Empty() {
		return styles.FaintText.Render(" h help")
	}
	style := styles.InfoText
	switch m.notice.Level {
	case progress.LevelSuccess:
		style = styles.SuccessText
	case progress.LevelError:
		style = styles.DangerText
	}
	return " " + style.Render(truncate(plainLine(m.notice.Text), maxInt(m.width-2, 1)))
}

// courseTitle prefers the loaded progress title, then the detail title.
func (m Model) courseTitle() string {
	if m.screen == ScreenProgress && m.view.Title != "" {
		return m.view.Title
	}
	if m.detail != nil && m.detail.Course.Title != "" {
		return m.detail.Course.Title
	}
	return m.courseID
}

// phaseStatus maps a synchronizer phase onto a status color key.
func phaseStatus(p progress.Phase) string {
	switch p {
	case progress.PhaseLoading, progress.PhaseMutating:
		return statusLoading
	case progress.PhaseFailed:
		return statusFailed
	case progress.PhaseReady:
		return statusViewed
	default:
		return statusUnviewed
	}
}
