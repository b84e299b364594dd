package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/lectern/internal/access"
	"github.com/five82/lectern/internal/api"
	"github.com/five82/lectern/internal/course"
	"github.com/five82/lectern/internal/player"
	"github.com/five82/lectern/internal/prefs"
	"github.com/five82/lectern/internal/progress"
	"github.com/five82/lectern/internal/resume"
	"github.com/five82/lectern/internal/viewer"
)

// Screen is the page currently shown.
type Screen int

const (
	ScreenDetail Screen = iota
	ScreenProgress
)

const (
	signInMessage   = "Sign in to view course details"
	noVideoMessage  = "No video available for this lecture."
	loadFailMessage = "Failed to load course"
	purchaseHint    = "Purchase this course to unlock its lectures."
)

// ResumeStore persists the last selected lecture per course.
type ResumeStore interface {
	Save(ctx context.Context, p resume.Position) error
	Lookup(ctx context.Context, viewerID, courseID string) (resume.Position, bool, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	CourseID  string
	Viewer    viewer.Viewer
	Gate      *access.Gate
	Progress  api.ProgressAPI
	Policy    progress.FailurePolicy
	Launcher  player.Launcher
	Resume    ResumeStore
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
	Logger    *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	courseID  string
	viewer    viewer.Viewer
	gate      *access.Gate
	backend   api.ProgressAPI
	policy    progress.FailurePolicy
	launcher  player.Launcher
	resume    ResumeStore
	prefs     prefs.Prefs
	prefsPath string
	logPath   string
	logger    *zap.Logger
	now       func() time.Time

	// UI state
	theme  Theme
	keys   keyMap
	help   help.Model
	screen Screen
	width  int
	height int
	ready  bool

	// Course page
	decision      access.Decision
	detail        *course.Detail
	detailErr     error
	detailLoading bool

	// Lecture screen; sync is nil outside ScreenProgress.
	sync *progress.Synchronizer
	view progress.View

	// Status line
	notice      progress.Notice
	noticeUntil time.Time

	// Overlays
	showHelp bool
	modal    Modal

	// Activity log
	showLogs    bool
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := opts.Prefs
	if p.Theme == "" {
		p.Theme = prefs.Default().Theme
	}

	return Model{
		ctx:       ctx,
		courseID:  strings.TrimSpace(opts.CourseID),
		viewer:    opts.Viewer,
		gate:      opts.Gate,
		backend:   opts.Progress,
		policy:    opts.Policy,
		launcher:  opts.Launcher,
		resume:    opts.Resume,
		prefs:     p,
		prefsPath: opts.PrefsPath,
		logPath:   opts.LogPath,
		logger:    logger.With(zap.String("component", "ui")),
		now:       time.Now,
		theme:     GetTheme(p.Theme),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		screen:    ScreenDetail,
		logState:  logState{follow: true},

		detailLoading: true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(DefaultUIInterval),
		m.requestDetailCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.help.Width = msg.Width
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case detailMsg:
		return m.handleDetail(msg)

	case progressLoadedMsg:
		if msg.sync != m.sync {
			return m, nil
		}
		m.view = m.sync.View()
		if msg.err != nil && !isDropped(msg.err) {
			m.logger.Warn("progress load failed", zap.String("view", msg.sync.ViewID()), zap.Error(msg.err))
		}
		return m, nil

	case commitDoneMsg:
		if msg.sync != m.sync {
			return m, nil
		}
		m.view = m.sync.View()
		if !msg.notice.Empty() {
			m.setNotice(msg.notice)
		}
		return m, nil

	case playbackMsg:
		return m.handlePlayback(msg)

	case resumeMsg:
		return m.handleResume(msg)

	case resumeSavedMsg:
		if msg.err != nil {
			m.logger.Warn("save resume position failed", zap.Error(msg.err))
		}
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.closeSync()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.logState.contentVersion++
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.ToggleLogs):
		m.showLogs = !m.showLogs
		if m.showLogs {
			cmd := m.refreshLogs()
			return m, cmd
		}
		return m, nil
	}

	if m.showLogs {
		return m.handleLogsKey(msg)
	}

	switch m.screen {
	case ScreenProgress:
		return m.handleProgressKey(msg)
	default:
		return m.handleDetailKey(msg)
	}
}

// handleDetailKey processes keys on the course page.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m.openProgress()

	case key.Matches(msg, m.keys.Reload):
		if m.detailLoading {
			return m, nil
		}
		m.detailLoading = true
		return m, m.requestDetailCmd()
	}
	return m, nil
}

// handleProgressKey processes keys on the lecture screen.
func (m Model) handleProgressKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sync == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.closeSync()
		m.screen = ScreenDetail
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		return m, loadProgressCmd(m.ctx, m.sync)

	case key.Matches(msg, m.keys.Down):
		return m.moveSelection(m.sync.Next())

	case key.Matches(msg, m.keys.Up):
		return m.moveSelection(m.sync.Prev())

	case key.Matches(msg, m.keys.Top):
		return m.selectAt(0)

	case key.Matches(msg, m.keys.Bottom):
		return m.selectAt(len(m.view.Lectures) - 1)

	case key.Matches(msg, m.keys.Toggle):
		return m.beginToggle()

	case key.Matches(msg, m.keys.Play), key.Matches(msg, m.keys.Confirm):
		return m.play()

	case key.Matches(msg, m.keys.Resume):
		if m.resume == nil || !m.viewer.Authenticated() {
			m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: "No saved position"})
			return m, nil
		}
		return m, lookupResumeCmd(m.ctx, m.resume, m.sync, m.viewer.UID)

	case key.Matches(msg, m.keys.AutoComplete):
		m.prefs.AutoComplete = !m.prefs.AutoComplete
		m.savePrefs()
		m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: "Auto-complete on play " + ternary(m.prefs.AutoComplete, "enabled", "disabled")})
		return m, nil
	}
	return m, nil
}

// handleDetail applies the gate decision for the course page.
func (m Model) handleDetail(msg detailMsg) (tea.Model, tea.Cmd) {
	m.detailLoading = false
	m.decision = msg.decision
	m.detailErr = msg.err
	if msg.err != nil {
		m.detail = nil
		m.logger.Warn("course detail unavailable", zap.String("course", m.courseID), zap.Error(msg.err))
		return m, nil
	}
	if msg.decision == access.DecisionPrompt {
		m.detail = nil
		m.modal = signInPrompt{courseID: m.courseID}
		return m, nil
	}
	m.detail = msg.detail
	return m, nil
}

// openProgress starts a fresh synchronizer for the course. Only entitled
// viewers get past the course page.
func (m Model) openProgress() (tea.Model, tea.Cmd) {
	if m.detail == nil {
		return m, nil
	}
	if !access.Entitled(m.viewer, m.detail.Course) {
		m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: purchaseHint})
		return m, nil
	}
	if m.backend == nil {
		m.setNotice(progress.Notice{Level: progress.LevelError, Text: loadFailMessage})
		return m, nil
	}

	m.closeSync()
	m.sync = progress.New(m.backend, m.courseID, progress.Options{
		Viewer:    m.viewer,
		Purchased: m.detail.Course.Purchased,
		Policy:    m.policy,
		Logger:    m.logger,
	})
	m.view = m.sync.View()
	m.screen = ScreenProgress
	return m, loadProgressCmd(m.ctx, m.sync)
}

// beginToggle flips the current lecture optimistically and sends the update.
func (m Model) beginToggle() (tea.Model, tea.Cmd) {
	mutation, notice, err := m.sync.BeginToggle()
	switch {
	case errors.Is(err, progress.ErrInFlight):
		m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: "Update already in progress"})
		return m, nil
	case errors.Is(err, progress.ErrNotEntitled):
		m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: purchaseHint})
		return m, nil
	case err != nil:
		return m, nil
	}
	m.view = m.sync.View()
	m.setNotice(notice)
	return m, commitCmd(m.ctx, m.sync, mutation)
}

// play hands the current lecture to the player.
func (m Model) play() (tea.Model, tea.Cmd) {
	lecture, ok := m.sync.Playable()
	if !ok {
		switch {
		case !m.view.Entitled:
			m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: purchaseHint})
		case m.view.HasCurrent && !m.view.Current.Lecture.HasVideo():
			m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: noVideoMessage})
		}
		return m, nil
	}
	if m.launcher == nil {
		m.setNotice(progress.Notice{Level: progress.LevelError, Text: player.ErrNoPlayer.Error()})
		return m, nil
	}
	return m, launchCmd(m.ctx, m.launcher, m.sync, lecture)
}

// handlePlayback marks the lecture complete once its playback started.
func (m Model) handlePlayback(msg playbackMsg) (tea.Model, tea.Cmd) {
	if msg.sync != m.sync {
		return m, nil
	}
	if msg.err != nil {
		m.logger.Warn("playback failed", zap.String("lecture", msg.lectureID), zap.Error(msg.err))
		m.setNotice(progress.Notice{Level: progress.LevelError, Text: "Failed to start player"})
		return m, nil
	}
	m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: "Playing " + msg.title})
	if !m.prefs.AutoComplete || !m.view.HasCurrent || m.view.Current.Lecture.ID != msg.lectureID {
		return m, nil
	}

	mutation, notice, started, err := m.sync.BeginPlayback()
	switch {
	case errors.Is(err, progress.ErrInFlight):
		return m, nil
	case err != nil:
		m.logger.Warn("auto-complete not started", zap.String("lecture", msg.lectureID), zap.Error(err))
		m.setNotice(progress.Notice{Level: progress.LevelError, Text: "Could not mark " + msg.title + " as completed"})
		return m, nil
	case !started:
		return m, nil
	}
	m.view = m.sync.View()
	m.setNotice(notice)
	return m, commitCmd(m.ctx, m.sync, mutation)
}

// handleResume jumps to the saved lecture.
func (m Model) handleResume(msg resumeMsg) (tea.Model, tea.Cmd) {
	if msg.sync != m.sync {
		return m, nil
	}
	if msg.err != nil {
		m.logger.Warn("lookup resume position failed", zap.Error(msg.err))
		m.setNotice(progress.Notice{Level: progress.LevelError, Text: "Failed to read saved position"})
		return m, nil
	}
	if !msg.ok {
		m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: "No saved position"})
		return m, nil
	}
	if err := m.sync.Select(msg.lectureID); err != nil {
		m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: "Saved lecture is no longer part of this course"})
		return m, nil
	}
	m.view = m.sync.View()
	return m, nil
}

// moveSelection refreshes the view after a selection change and records
// the new position.
func (m Model) moveSelection(moved bool) (tea.Model, tea.Cmd) {
	if !moved {
		return m, nil
	}
	m.view = m.sync.View()
	return m, m.saveResumeCmd()
}

func (m Model) selectAt(idx int) (tea.Model, tea.Cmd) {
	if idx < 0 || idx >= len(m.view.Lectures) {
		return m, nil
	}
	id := m.view.Lectures[idx].Lecture.ID
	if m.view.HasCurrent && m.view.Current.Lecture.ID == id {
		return m, nil
	}
	return m.moveSelection(m.sync.Select(id) == nil)
}

// handleTick expires notices and follows the activity log.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if !m.noticeUntil.IsZero() && !now.Before(m.noticeUntil) {
		m.notice = progress.Notice{}
		m.noticeUntil = time.Time{}
	}

	cmds := []tea.Cmd{tickCmd(DefaultUIInterval)}
	if m.showLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) setNotice(n progress.Notice) {
	m.notice = n
	m.noticeUntil = m.now().Add(NoticeTTL)
}

func (m *Model) closeSync() {
	if m.sync != nil {
		m.sync.Close()
		m.sync = nil
		m.view = progress.View{}
	}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", zap.Error(err))
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())

	return b.String()
}

// renderContent renders the main content area based on current screen.
func (m Model) renderContent() string {
	if m.showLogs {
		return m.renderLogs()
	}
	switch m.screen {
	case ScreenProgress:
		return m.renderProgress()
	default:
		return m.renderDetail()
	}
}

// contentHeight is the space left under the header, command bar and status line.
func (m Model) contentHeight() int {
	return maxInt(m.height-3, 1)
}

// isDropped reports errors for completions nobody is waiting for anymore.
func isDropped(err error) bool {
	return errors.Is(err, progress.ErrStale) || errors.Is(err, progress.ErrClosed)
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.closeSync()
	}
	return err
}
