package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lectern/internal/logtail"
)

const logRefreshInterval = 2 * time.Second

// logState holds the activity overlay state.
type logState struct {
	entries     []logtail.Entry
	err         error
	follow      bool
	lastRefresh time.Time

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
	rendered       bool
}

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// initLogViewport initializes the log viewport.
func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(maxInt(m.width-4, 1), maxInt(m.height-5, 1))
	m.logViewport.Style = lipgloss.NewStyle()
}

// updateLogViewport updates the log viewport with current content.
func (m *Model) updateLogViewport() {
	if m.logViewport.Width == 0 {
		m.initLogViewport()
	}

	// Box inner = content height - 2 borders - 1 status line
	m.logViewport.Width = maxInt(m.width-4, 1)
	m.logViewport.Height = maxInt(m.contentHeight()-3, 1)
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if !m.logState.rendered || m.logState.contentVersion != m.logState.lastRendered {
		m.logViewport.SetContent(m.renderLogContent())
		m.logState.lastRendered = m.logState.contentVersion
		m.logState.rendered = true
	}

	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogs renders the activity overlay in place of the current screen.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	box := m.renderBox("Activity", m.logViewport.View(), m.width, m.contentHeight()-1, true)
	return box + "\n" + m.renderLogStatus(styles, bg)
}

// renderLogStatus renders the line under the log box.
func (m Model) renderLogStatus(styles Styles, bg BgStyle) string {
	if m.logPath == "" {
		return bg.Render("File logging is disabled", styles.WarningText)
	}
	if m.logState.err != nil {
		return bg.Render("Log unavailable: "+plainLine(m.logState.err.Error()), styles.DangerText)
	}

	autoTail := ternary(m.logState.follow, "on", "off")
	parts := []string{
		bg.Render(fmt.Sprintf("%d entries auto-tail %s", len(m.logState.entries), autoTail), styles.FaintText),
		bg.Render(truncateMiddle(m.logPath, 60), styles.AccentText),
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return strings.Join(parts, sep)
}

// renderLogContent renders the colorized log lines.
func (m *Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	if len(m.logState.entries) == 0 {
		return bg.FillLine(bg.Render("No activity yet", styles.FaintText), width)
	}

	var b strings.Builder
	for i, e := range m.logState.entries {
		var line strings.Builder
		if !e.Time.IsZero() {
			line.WriteString(bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
			line.WriteString(bg.Space())
		}
		if e.Level != "" {
			line.WriteString(bg.Render(padRight(e.Level, 5), m.levelStyle(e.Level, styles)))
			line.WriteString(bg.Space())
		}
		line.WriteString(bg.Render(plainLine(e.Message), styles.Text))
		if e.Fields != "" {
			line.WriteString(bg.Space())
			line.WriteString(bg.Render(plainLine(e.Fields), styles.MutedText))
		}
		b.WriteString(bg.FillLine(line.String(), width))
		if i < len(m.logState.entries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// levelStyle returns the style for a log level.
func (m *Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return styles.DangerText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.Text
	}
}

// handleLogsKey processes keyboard input while the activity overlay is open.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.showLogs = false
		return m, nil

	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logState.follow = false
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logState.follow = true
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.logViewport.LineDown(1)
		m.logState.follow = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.logViewport.LineUp(1)
		m.logState.follow = false
		return m, nil
	}
	return m, nil
}

// refreshLogs reads the tail of the log file.
func (m *Model) refreshLogs() tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	now := m.now()
	if now.Sub(m.logState.lastRefresh) < logRefreshInterval {
		return nil
	}
	m.logState.lastRefresh = now

	path := m.logPath
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		if err != nil {
			return logsMsg{err: err}
		}
		return logsMsg{entries: logtail.ParseLines(lines)}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.entries = msg.entries
	}
	m.logState.contentVersion++
	m.updateLogViewport()
}
