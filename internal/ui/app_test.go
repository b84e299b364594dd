package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/lectern/internal/access"
	"github.com/five82/lectern/internal/api"
	"github.com/five82/lectern/internal/prefs"
	"github.com/five82/lectern/internal/progress"
	"github.com/five82/lectern/internal/resume"
	"github.com/five82/lectern/internal/viewer"
)

var (
	signedIn  = viewer.Viewer{Token: "tok", UID: "u1", Name: "Ada"}
	anonymous = viewer.Anonymous()
)

type fakeBackend struct {
	mu            sync.Mutex
	purchased     bool
	viewed        map[string]bool
	detailCalls   int
	progressCalls int
	updates       int
	updateErr     error
	// progressHook runs before a progress fetch responds; calls start at 1.
	progressHook func(call int)
}

func newBackend(purchased bool) *fakeBackend {
	return &fakeBackend{purchased: purchased, viewed: make(map[string]bool)}
}

func (f *fakeBackend) FetchCourseDetail(ctx context.Context, courseID string) (*api.CourseDetailResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	return &api.CourseDetailResponse{
		Course: api.CourseDetail{
			ID:          courseID,
			CourseTitle: "Go Basics",
			SubTitle:    "From zero to goroutines",
			Description: "<p>Learn <b>Go</b> &amp; have fun</p>",
			CoursePrice: 1500,
			Creator:     api.Creator{Name: "Rob"},
			CreatedAt:   "2024-03-01T10:00:00Z",
			Lectures: []api.DetailLecture{
				{ID: "L1", LectureTitle: "Intro"},
				{ID: "L2", LectureTitle: "Setup"},
			},
		},
		Purchased: f.purchased,
	}, nil
}

func (f *fakeBackend) FetchCourseProgress(ctx context.Context, courseID string) (*api.CourseProgressResponse, error) {
	f.mu.Lock()
	f.progressCalls++
	call, hook := f.progressCalls, f.progressHook
	f.mu.Unlock()
	if hook != nil {
		hook(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	entries := make([]api.ProgressEntry, 0, len(f.viewed))
	for _, id := range []string{"L1", "L2", "L3"} {
		if f.viewed[id] {
			entries = append(entries, api.ProgressEntry{LectureID: id, Viewed: true})
		}
	}
	return &api.CourseProgressResponse{Data: api.CourseProgressData{
		CourseDetails: api.CourseDetails{
			CourseTitle: "Go Basics",
			Lectures: []api.LectureSummary{
				{ID: "L1", LectureTitle: "Intro", VideoURL: "https://cdn/1.mp4"},
				{ID: "L2", LectureTitle: "Setup", VideoURL: "https://cdn/2.mp4"},
				{ID: "L3", LectureTitle: "", VideoURL: ""},
			},
		},
		Progress: entries,
	}}, nil
}

func (f *fakeBackend) UpdateLectureProgress(ctx context.Context, courseID, lectureID string, markComplete bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.viewed[lectureID] = markComplete
	return nil
}

func (f *fakeBackend) counts() (detail, progress, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls, f.progressCalls, f.updates
}

type fakeLauncher struct {
	urls []string
	err  error
}

func (f *fakeLauncher) Launch(ctx context.Context, mediaURL string) error {
	f.urls = append(f.urls, mediaURL)
	return f.err
}

type fakeResume struct {
	positions map[string]resume.Position
}

func (f *fakeResume) Save(ctx context.Context, p resume.Position) error {
	f.positions[p.ViewerID+"/"+p.CourseID] = p
	return nil
}

func (f *fakeResume) Lookup(ctx context.Context, viewerID, courseID string) (resume.Position, bool, error) {
	p, ok := f.positions[viewerID+"/"+courseID]
	return p, ok, nil
}

type harness struct {
	backend  *fakeBackend
	launcher *fakeLauncher
	resume   *fakeResume
}

func newHarness(t *testing.T, v viewer.Viewer, purchased bool) (Model, *harness) {
	t.Helper()
	h := &harness{
		backend:  newBackend(purchased),
		launcher: &fakeLauncher{},
		resume:   &fakeResume{positions: make(map[string]resume.Position)},
	}
	m := New(Options{
		CourseID: "c1",
		Viewer:   v,
		Gate:     access.NewGate(h.backend, nil),
		Progress: h.backend,
		Launcher: h.launcher,
		Resume:   h.resume,
		Prefs:    prefs.Default(),
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, h
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command, got nil")
	}
	next, follow := m.Update(cmd())
	return next.(Model), follow
}

// openCourse loads the course page and continues into the lecture screen.
func openCourse(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = run(t, m, m.requestDetailCmd())
	m, cmd := press(t, m, "enter")
	if m.screen != ScreenProgress {
		t.Fatalf("screen = %v, want progress", m.screen)
	}
	m, _ = run(t, m, cmd)
	return m
}

func TestAnonymousViewerGetsPromptWithoutFetch(t *testing.T) {
	m, h := newHarness(t, anonymous, true)

	m, _ = run(t, m, m.requestDetailCmd())
	if detail, _, _ := h.backend.counts(); detail != 0 {
		t.Fatalf("detail fetches = %d, want 0", detail)
	}
	if m.decision != access.DecisionPrompt || m.modal == nil {
		t.Fatalf("decision=%v modal=%v, want prompt modal", m.decision, m.modal)
	}
	if !strings.Contains(m.View(), signInMessage) {
		t.Fatalf("view does not show sign-in prompt")
	}

	m, _ = press(t, m, "enter")
	if m.modal != nil {
		t.Fatalf("modal still open after enter")
	}
	if !strings.Contains(m.renderDetail(), signInMessage) {
		t.Fatalf("course page lost the sign-in prompt")
	}

	m, cmd := press(t, m, "enter")
	if cmd != nil || m.screen != ScreenDetail {
		t.Fatalf("anonymous viewer reached lecture screen")
	}
}

func TestCourseDetailContent(t *testing.T) {
	m, h := newHarness(t, signedIn, false)
	m, _ = run(t, m, m.requestDetailCmd())

	if detail, _, _ := h.backend.counts(); detail != 1 {
		t.Fatalf("detail fetches = %d, want 1", detail)
	}
	out := m.detailContent(*m.detail, 100)
	for _, want := range []string{
		"Go Basics", "From zero to goroutines", "Created By", "Rob",
		"Last updated", "2024-03-01", "Students enrolled:", "Learn Go & have fun",
		"Course Content", glyphLock, "Preview", "Intro", "NPR 1500", purchaseHint,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail content missing %q", want)
		}
	}
	if strings.Contains(out, "Continue course") {
		t.Fatalf("unpurchased course offers Continue course")
	}
}

func TestContinueCourseRequiresPurchase(t *testing.T) {
	m, h := newHarness(t, signedIn, false)
	m, _ = run(t, m, m.requestDetailCmd())

	m, cmd := press(t, m, "enter")
	if cmd != nil {
		t.Fatalf("enter on unpurchased course returned a command")
	}
	if m.screen != ScreenDetail || m.notice.Text != purchaseHint {
		t.Fatalf("screen=%v notice=%q, want detail with purchase hint", m.screen, m.notice.Text)
	}
	if _, loads, _ := h.backend.counts(); loads != 0 {
		t.Fatalf("progress fetches = %d, want 0", loads)
	}
}

func TestToggleOptimisticThenAuthoritative(t *testing.T) {
	m, h := newHarness(t, signedIn, true)
	m = openCourse(t, m)

	if len(m.view.Lectures) != 3 || m.view.Current.Lecture.ID != "L1" {
		t.Fatalf("view = %+v, want 3 lectures with L1 selected", m.view)
	}
	if !strings.Contains(m.lecturePanel(80), "Lecture 1 : Intro") {
		t.Fatalf("panel missing lecture heading")
	}

	m, cmd := press(t, m, " ")
	if m.notice.Text != "Lecture marked as completed" {
		t.Fatalf("notice = %q, want optimistic completion", m.notice.Text)
	}
	if !m.view.Current.Viewed || !m.view.Current.Pending {
		t.Fatalf("current = %+v, want viewed and pending", m.view.Current)
	}
	if !strings.Contains(m.lecturePanel(80), "Mark as incomplete") {
		t.Fatalf("toggle label did not flip")
	}

	m, _ = run(t, m, cmd)
	if _, loads, updates := h.backend.counts(); updates != 1 || loads != 2 {
		t.Fatalf("updates=%d loads=%d, want 1 update and a refetch", updates, loads)
	}
	if !m.view.Current.Viewed || m.view.Current.Pending {
		t.Fatalf("current = %+v, want viewed and settled", m.view.Current)
	}
	if m.view.Completed != 1 {
		t.Fatalf("completed = %d, want 1", m.view.Completed)
	}
}

func TestToggleFailureReverts(t *testing.T) {
	m, h := newHarness(t, signedIn, true)
	h.backend.updateErr = errors.New("boom")
	m = openCourse(t, m)

	m, cmd := press(t, m, "c")
	m, _ = run(t, m, cmd)

	if m.notice.Text != "Failed to update lecture progress" || m.notice.Level != progress.LevelError {
		t.Fatalf("notice = %+v, want failure notice", m.notice)
	}
	if m.view.Current.Viewed {
		t.Fatalf("lecture still viewed after failed update")
	}
	if m.view.Phase != progress.PhaseReady {
		t.Fatalf("phase = %v, want ready", m.view.Phase)
	}
}

func TestSecondToggleWhileInFlight(t *testing.T) {
	m, h := newHarness(t, signedIn, true)
	m = openCourse(t, m)

	m, first := press(t, m, " ")
	m, second := press(t, m, " ")
	if second != nil {
		t.Fatalf("second toggle returned a command")
	}
	if m.notice.Text != "Update already in progress" {
		t.Fatalf("notice = %q, want in-flight notice", m.notice.Text)
	}
	m, _ = run(t, m, first)
	if _, _, updates := h.backend.counts(); updates != 1 {
		t.Fatalf("updates = %d, want 1", updates)
	}
}

func TestRepliesAfterBackAreIgnored(t *testing.T) {
	m, h := newHarness(t, signedIn, true)
	m = openCourse(t, m)

	m, commit := press(t, m, " ")
	m, _ = press(t, m, "esc")
	if m.screen != ScreenDetail || m.sync != nil {
		t.Fatalf("screen=%v sync=%v, want detail with no synchronizer", m.screen, m.sync)
	}

	msg := commit()
	done, ok := msg.(commitDoneMsg)
	if !ok || !errors.Is(done.err, progress.ErrClosed) {
		t.Fatalf("commit reply = %#v, want ErrClosed", msg)
	}
	m = update(t, m, msg)
	if m.screen != ScreenDetail || m.sync != nil {
		t.Fatalf("late reply revived the lecture screen")
	}
	if _, _, updates := h.backend.counts(); updates != 0 {
		t.Fatalf("updates = %d, want 0 after close", updates)
	}
}

func TestPlayMarksCompleteWithAutoComplete(t *testing.T) {
	m, h := newHarness(t, signedIn, true)
	m = openCourse(t, m)

	m, cmd := press(t, m, "p")
	m, commit := run(t, m, cmd)
	if len(h.launcher.urls) != 1 || h.launcher.urls[0] != "https://cdn/1.mp4" {
		t.Fatalf("launched = %v, want lecture 1 media", h.launcher.urls)
	}
	if !m.view.Current.Viewed {
		t.Fatalf("lecture not marked viewed when playback started")
	}
	m, _ = run(t, m, commit)
	if _, _, updates := h.backend.counts(); updates != 1 {
		t.Fatalf("updates = %d, want 1", updates)
	}

	// Playing a viewed lecture never toggles it back.
	m, cmd = press(t, m, "p")
	m, commit = run(t, m, cmd)
	if commit != nil {
		t.Fatalf("replaying a viewed lecture returned a commit")
	}
	if !m.view.Current.Viewed {
		t.Fatalf("replay cleared the viewed flag")
	}
}

func TestPlayDuringReloadStillCompletes(t *testing.T) {
	m, h := newHarness(t, signedIn, true)
	m = openCourse(t, m)

	started := make(chan struct{})
	release := make(chan struct{})
	h.backend.mu.Lock()
	h.backend.progressHook = func(call int) {
		if call == 2 {
			close(started)
			<-release
		}
	}
	h.backend.mu.Unlock()

	m, reload := press(t, m, "R")
	reloaded := make(chan tea.Msg, 1)
	go func() { reloaded <- reload() }()
	<-started

	m, cmd := press(t, m, "p")
	m, commit := run(t, m, cmd)
	if commit == nil {
		t.Fatalf("playback during a reload returned no commit (notice %q)", m.notice.Text)
	}
	if !m.view.Current.Viewed {
		t.Fatalf("lecture not marked viewed during reload")
	}

	close(release)
	m = update(t, m, <-reloaded)
	if !m.view.Current.Viewed {
		t.Fatalf("reload dropped the pending completion")
	}
	m, _ = run(t, m, commit)
	if _, _, updates := h.backend.counts(); updates != 1 {
		t.Fatalf("updates = %d, want 1", updates)
	}
	if m.view.Phase != progress.PhaseReady || !m.view.Current.Viewed {
		t.Fatalf("final phase=%s viewed=%v, want ready and viewed", m.view.Phase, m.view.Current.Viewed)
	}
}

func TestPlayWithoutAutoComplete(t *testing.T) {
	m, h := newHarness(t, signedIn, true)
	m = openCourse(t, m)
	m, _ = press(t, m, "a")
	if m.prefs.AutoComplete {
		t.Fatalf("auto-complete still on")
	}

	m, cmd := press(t, m, "p")
	m, commit := run(t, m, cmd)
	if commit != nil || m.view.Current.Viewed {
		t.Fatalf("playback marked the lecture with auto-complete off")
	}
	if len(h.launcher.urls) != 1 {
		t.Fatalf("launched = %v, want one launch", h.launcher.urls)
	}
}

func TestPlayLectureWithoutVideo(t *testing.T) {
	m, h := newHarness(t, signedIn, true)
	m = openCourse(t, m)

	m, _ = press(t, m, "G")
	if m.view.Current.Lecture.ID != "L3" {
		t.Fatalf("current = %s, want L3", m.view.Current.Lecture.ID)
	}
	m, cmd := press(t, m, "p")
	if cmd != nil {
		t.Fatalf("play without video returned a command")
	}
	if m.notice.Text != noVideoMessage {
		t.Fatalf("notice = %q, want %q", m.notice.Text, noVideoMessage)
	}
	panel := m.lecturePanel(80)
	if !strings.Contains(panel, "Lecture 3 : Untitled") || !strings.Contains(panel, noVideoMessage) {
		t.Fatalf("panel does not describe an untitled lecture without video")
	}
	if len(h.launcher.urls) != 0 {
		t.Fatalf("launcher called for a lecture without video")
	}
}

func TestNavigationSavesAndResumes(t *testing.T) {
	m, h := newHarness(t, signedIn, true)
	m = openCourse(t, m)

	m, save := press(t, m, "j")
	m, _ = run(t, m, save)
	pos, ok := h.resume.positions["u1/c1"]
	if !ok || pos.LectureID != "L2" {
		t.Fatalf("saved position = %+v, want L2", pos)
	}

	m, save = press(t, m, "k")
	m, _ = run(t, m, save)
	if m.view.Current.Lecture.ID != "L1" {
		t.Fatalf("current = %s, want L1", m.view.Current.Lecture.ID)
	}

	h.resume.positions["u1/c1"] = resume.Position{ViewerID: "u1", CourseID: "c1", LectureID: "L3"}
	m, lookup := press(t, m, "r")
	m, _ = run(t, m, lookup)
	if m.view.Current.Lecture.ID != "L3" {
		t.Fatalf("current = %s, want resumed L3", m.view.Current.Lecture.ID)
	}

	h.resume.positions["u1/c1"] = resume.Position{ViewerID: "u1", CourseID: "c1", LectureID: "gone"}
	m, lookup = press(t, m, "r")
	m, _ = run(t, m, lookup)
	if m.view.Current.Lecture.ID != "L3" || !strings.Contains(m.notice.Text, "no longer") {
		t.Fatalf("unknown saved lecture: current=%s notice=%q", m.view.Current.Lecture.ID, m.notice.Text)
	}
}

func TestNoticeExpiresOnTick(t *testing.T) {
	m, _ := newHarness(t, signedIn, true)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	m.setNotice(progress.Notice{Level: progress.LevelInfo, Text: "hello"})
	m = update(t, m, tickMsg(start.Add(time.Second)))
	if m.notice.Text != "hello" {
		t.Fatalf("notice expired early")
	}
	m = update(t, m, tickMsg(start.Add(NoticeTTL)))
	if !m.notice.Empty() {
		t.Fatalf("notice = %q, want expired", m.notice.Text)
	}
}

func TestThemeCycleSavesPrefs(t *testing.T) {
	m, _ := newHarness(t, signedIn, true)
	m.prefsPath = t.TempDir() + "/prefs.toml"

	m, _ = press(t, m, "T")
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	saved, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("Load prefs: %v", err)
	}
	if saved.Theme != "Kanagawa" || !saved.AutoComplete {
		t.Fatalf("saved prefs = %+v, want Kanagawa with auto-complete", saved)
	}
}

func TestQuitClosesSynchronizer(t *testing.T) {
	m, _ := newHarness(t, signedIn, true)
	m = openCourse(t, m)
	s := m.sync

	m, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatalf("quit returned no command")
	}
	if s.Phase() != progress.PhaseClosed {
		t.Fatalf("phase = %v, want closed", s.Phase())
	}
	if m.sync != nil {
		t.Fatalf("sync still set after quit")
	}
}
