package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lectern/internal/access"
	"github.com/five82/lectern/internal/api"
	"github.com/five82/lectern/internal/course"
)

const (
	glyphPlay = "▶"
	glyphLock = "🔒"
)

// renderDetail renders the course page.
func (m Model) renderDetail() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.Surface)

	switch {
	case m.decision == access.DecisionPrompt && !m.detailLoading:
		body := styles.Text.Bold(true).Render(signInMessage) + "\n\n" +
			styles.MutedText.Render("Restart with --token or set the session token to continue.")
		return m.renderBox("Course", body, m.width, height, false)

	case m.detailErr != nil:
		return m.renderBox("Course", m.renderLoadFailure(m.detailErr, styles), m.width, height, false)

	case m.detail == nil:
		return m.renderBox("Course", styles.MutedText.Render("Loading course..."), m.width, height, false)
	}

	return m.renderBox("Course", m.detailContent(*m.detail, maxInt(m.width-4, 10)), m.width, height, true)
}

// detailContent lays out the course summary, lecture list and call to action.
func (m Model) detailContent(d course.Detail, width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	entitled := access.Entitled(m.viewer, d.Course)
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(plainLine(d.Course.Title)))
	b.WriteString("\n")
	if sub := plainLine(d.SubTitle); sub != "" {
		b.WriteString(wrap.Render(styles.MutedText.Render(sub)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	creator := plainLine(d.CreatorName)
	b.WriteString(labelValue(styles, "Created By", ternary(creator != "", creator, "Unknown")))
	b.WriteString("\n")
	updated := "Unknown"
	if !d.UpdatedAt.IsZero() {
		updated = d.UpdatedAt.Format("2006-01-02")
	}
	b.WriteString(labelValue(styles, "Last updated", updated))
	b.WriteString("\n")
	b.WriteString(labelValue(styles, "Students enrolled:", fmt.Sprintf("%d", d.Enrolled)))
	b.WriteString("\n\n")

	if desc := stripMarkup(d.Description); desc != "" {
		b.WriteString(styles.AccentText.Bold(true).Render("Description"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(styles.Text.Render(desc)))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.AccentText.Bold(true).Render("Course Content"))
	b.WriteString("\n")
	if len(d.Course.Lectures) == 0 {
		b.WriteString(styles.FaintText.Render("No lectures yet"))
		b.WriteString("\n")
	}
	glyph := ternary(entitled, glyphPlay, glyphLock)
	for _, l := range d.Course.Lectures {
		b.WriteString(styles.MutedText.Render(glyph + " "))
		b.WriteString(styles.Text.Render(truncate(plainLine(l.DisplayTitle()), width-3)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(labelValue(styles, "Preview", previewTitle(d)))
	b.WriteString("\n")
	b.WriteString(labelValue(styles, "Price", formatPrice(d.Price)))
	b.WriteString("\n\n")

	if entitled {
		b.WriteString(styles.SuccessText.Render("[enter] Continue course"))
	} else {
		b.WriteString(styles.WarningText.Render(purchaseHint))
	}
	return b.String()
}

// renderLoadFailure explains why a page could not be loaded.
func (m Model) renderLoadFailure(err error, styles Styles) string {
	reason := plainLine(err.Error())
	if errors.Is(err, api.ErrUnauthorized) {
		reason = "Your session is not accepted by the server. Sign in again."
	}
	return styles.DangerText.Render(loadFailMessage) + "\n\n" +
		lipgloss.NewStyle().Width(maxInt(m.width-4, 10)).Render(styles.MutedText.Render(reason)) + "\n\n" +
		styles.FaintText.Render("Press R to retry")
}

// previewTitle is the first lecture's title, or a placeholder.
func previewTitle(d course.Detail) string {
	if len(d.Course.Lectures) > 0 {
		if title := plainLine(d.Course.Lectures[0].Title); title != "" {
			return title
		}
	}
	return "Lecture title"
}

func labelValue(styles Styles, label, value string) string {
	return styles.MutedText.Render(label) + " " + styles.Text.Render(value)
}
