package progress

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/lectern/internal/api"
	"github.com/five82/lectern/internal/viewer"
)

type fakeProgress struct {
	mu        sync.Mutex
	lectures  []api.LectureSummary
	viewed    map[string]bool
	fetches   int
	updates   int
	fetchErr  error
	updateErr error
	// fetchHook runs before a fetch responds; call numbers start at 1.
	fetchHook  func(call int)
	updateHook func(lectureID string)
}

func newFake(viewed ...string) *fakeProgress {
	f := &fakeProgress{
		lectures: []api.LectureSummary{
			{ID: "L1", LectureTitle: "Intro", VideoURL: "https://cdn/1.mp4"},
			{ID: "L2", LectureTitle: "Setup", VideoURL: "https://cdn/2.mp4"},
			{ID: "L3", LectureTitle: "", VideoURL: ""},
		},
		viewed: make(map[string]bool),
	}
	for _, id := range viewed {
		f.viewed[id] = true
	}
	return f
}

func (f *fakeProgress) FetchCourseProgress(ctx context.Context, courseID string) (*api.CourseProgressResponse, error) {
	f.mu.Lock()
	f.fetches++
	call := f.fetches
	hook := f.fetchHook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	ids := make([]string, 0, len(f.viewed))
	for id := range f.viewed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entries := make([]api.ProgressEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, api.ProgressEntry{LectureID: id, Viewed: true})
	}
	lectures := make([]api.LectureSummary, len(f.lectures))
	copy(lectures, f.lectures)
	return &api.CourseProgressResponse{Data: api.CourseProgressData{
		CourseDetails: api.CourseDetails{CourseTitle: "Go Basics", Lectures: lectures},
		Progress:      entries,
	}}, nil
}

func (f *fakeProgress) UpdateLectureProgress(ctx context.Context, courseID, lectureID string, markComplete bool) error {
	f.mu.Lock()
	f.updates++
	hook := f.updateHook
	f.mu.Unlock()

	if hook != nil {
		hook(lectureID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if markComplete {
		f.viewed[lectureID] = true
	} else {
		delete(f.viewed, lectureID)
	}
	return nil
}

func (f *fakeProgress) counts() (fetches, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches, f.updates
}

var member = viewer.Viewer{Token: "tok", UID: "u1"}

func loaded(t *testing.T, f *fakeProgress, opts Options) *Synchronizer {
	t.Helper()
	if opts.Viewer.Token == "" && !opts.Purchased {
		opts.Viewer = member
		opts.Purchased = true
	}
	s := New(f, "c1", opts)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return s
}

func viewedIDs(v View) []string {
	var ids []string
	for _, l := range v.Lectures {
		if l.Viewed {
			ids = append(ids, l.Lecture.ID)
		}
	}
	return ids
}

func TestLoad_SelectsFirstLecture(t *testing.T) {
	s := loaded(t, newFake("L2"), Options{ViewID: "v1"})

	v := s.View()
	if v.Phase != PhaseReady {
		t.Fatalf("Phase = %s, want ready", v.Phase)
	}
	if v.Title != "Go Basics" || len(v.Lectures) != 3 {
		t.Fatalf("view = %+v, want 3 lectures of Go Basics", v)
	}
	if !v.HasCurrent || v.Current.Lecture.ID != "L1" || v.Current.Ordinal != 1 {
		t.Fatalf("current = %+v, want L1 ordinal 1", v.Current)
	}
	if got := viewedIDs(v); len(got) != 1 || got[0] != "L2" {
		t.Fatalf("viewed = %v, want [L2]", got)
	}
	if v.Completed != 1 || v.ViewID != "v1" {
		t.Fatalf("Completed=%d ViewID=%q, want 1 and v1", v.Completed, v.ViewID)
	}
}

func TestLoad_FailureIsTerminalUntilReopened(t *testing.T) {
	f := newFake()
	f.fetchErr = errors.New("offline")
	s := New(f, "c1", Options{Viewer: member, Purchased: true})

	if err := s.Load(context.Background()); err == nil {
		t.Fatalf("Load returned nil error")
	}
	if s.Phase() != PhaseFailed || s.View().Err == nil {
		t.Fatalf("Phase = %s err=%v, want failed with error", s.Phase(), s.View().Err)
	}
	if _, _, err := s.BeginToggle(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("BeginToggle error = %v, want ErrNotReady", err)
	}
	if fetches, _ := f.counts(); fetches != 1 {
		t.Fatalf("fetches = %d, want 1 (no automatic retry)", fetches)
	}

	f.mu.Lock()
	f.fetchErr = nil
	f.mu.Unlock()
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	if s.Phase() != PhaseReady {
		t.Fatalf("Phase = %s, want ready", s.Phase())
	}
}

func TestToggle_OptimisticThenAuthoritative(t *testing.T) {
	f := newFake()
	s := loaded(t, f, Options{})

	m, notice, err := s.BeginToggle()
	if err != nil {
		t.Fatalf("BeginToggle returned error: %v", err)
	}
	if m.LectureID != "L1" || !m.MarkComplete {
		t.Fatalf("mutation = %+v, want L1 markComplete", m)
	}
	if notice.Text != "Lecture marked as completed" || notice.Level != LevelSuccess {
		t.Fatalf("notice = %+v", notice)
	}
	v := s.View()
	if v.Phase != PhaseMutating || !v.Current.Viewed || !v.Current.Pending {
		t.Fatalf("optimistic view = %+v, want mutating, viewed and pending", v.Current)
	}

	if n, err := s.Commit(context.Background(), m); err != nil || !n.Empty() {
		t.Fatalf("Commit = (%+v, %v), want empty notice and nil", n, err)
	}
	fetches, updates := f.counts()
	if fetches != 2 || updates != 1 {
		t.Fatalf("fetches=%d updates=%d, want 2 and 1", fetches, updates)
	}
	v = s.View()
	if v.Phase != PhaseReady || !v.Current.Viewed || v.Current.Pending {
		t.Fatalf("settled view = %+v phase=%s", v.Current, v.Phase)
	}

	notice, err = s.Toggle(context.Background())
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if notice.Text != "Lecture marked as incomplete" {
		t.Fatalf("notice = %q, want incomplete", notice.Text)
	}
	if s.View().Current.Viewed {
		t.Fatalf("L1 still viewed after second toggle")
	}
}

func TestToggle_ServerSnapshotWins(t *testing.T) {
	f := newFake()
	s := loaded(t, f, Options{})

	m, _, err := s.BeginToggle()
	if err != nil {
		t.Fatalf("BeginToggle returned error: %v", err)
	}
	f.mu.Lock()
	f.viewed["L3"] = true
	f.mu.Unlock()

	if _, err := s.Commit(context.Background(), m); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	got := viewedIDs(s.View())
	if len(got) != 2 || got[0] != "L1" || got[1] != "L3" {
		t.Fatalf("viewed = %v, want [L1 L3]", got)
	}
}

func TestCommitFailure_Policies(t *testing.T) {
	cases := []struct {
		name   string
		policy FailurePolicy
		want   bool
	}{
		{"revert restores authoritative value", PolicyRevert, false},
		{"keep leaves optimistic value", PolicyKeep, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFake()
			f.updateErr = errors.New("boom")
			s := loaded(t, f, Options{Viewer: member, Purchased: true, Policy: tc.policy})

			notice, err := s.Toggle(context.Background())
			if err == nil {
				t.Fatalf("Toggle returned nil error")
			}
			if notice.Level != LevelError || notice.Text != "Failed to update lecture progress" {
				t.Fatalf("notice = %+v", notice)
			}
			v := s.View()
			if v.Current.Viewed != tc.want {
				t.Fatalf("Viewed = %v, want %v", v.Current.Viewed, tc.want)
			}
			if v.Phase != PhaseReady || v.Current.Pending {
				t.Fatalf("phase=%s pending=%v, want ready and idle lecture", v.Phase, v.Current.Pending)
			}
			if fetches, _ := f.counts(); fetches != 1 {
				t.Fatalf("fetches = %d, want no re-fetch after failure", fetches)
			}
			if _, _, err := s.BeginToggle(); err != nil {
				t.Fatalf("view unusable after failure: %v", err)
			}
		})
	}
}

func TestBeginToggle_InFlightGuard(t *testing.T) {
	f := newFake()
	s := loaded(t, f, Options{})

	m, _, err := s.BeginToggle()
	if err != nil {
		t.Fatalf("BeginToggle returned error: %v", err)
	}
	if _, _, err := s.BeginToggle(); !errors.Is(err, ErrInFlight) {
		t.Fatalf("second BeginToggle error = %v, want ErrInFlight", err)
	}
	if !s.View().Current.Viewed {
		t.Fatalf("rejected toggle changed the local value")
	}
	if _, err := s.Commit(context.Background(), m); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if _, updates := f.counts(); updates != 1 {
		t.Fatalf("updates = %d, want 1", updates)
	}
	if _, err := s.Commit(context.Background(), m); err == nil {
		t.Fatalf("committing a settled mutation again returned nil error")
	}
}

func TestEntitlement(t *testing.T) {
	cases := []struct {
		name      string
		viewer    viewer.Viewer
		purchased bool
	}{
		{"anonymous", viewer.Anonymous(), true},
		{"not purchased", member, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFake("L1", "L2")
			s := New(f, "c1", Options{Viewer: tc.viewer, Purchased: tc.purchased})
			if err := s.Load(context.Background()); err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			v := s.View()
			if v.Entitled {
				t.Fatalf("Entitled = true")
			}
			if got := viewedIDs(v); len(got) != 0 {
				t.Fatalf("viewed = %v, want none while locked", got)
			}
			for _, l := range v.Lectures {
				if l.Playable {
					t.Fatalf("%s playable while locked", l.Lecture.ID)
				}
			}
			if _, _, err := s.BeginToggle(); !errors.Is(err, ErrNotEntitled) {
				t.Fatalf("BeginToggle error = %v, want ErrNotEntitled", err)
			}
			if _, _, started, _ := s.BeginPlayback(); started {
				t.Fatalf("BeginPlayback started while locked")
			}
			if err := s.Select("L2"); err != nil {
				t.Fatalf("Select is not gated, got %v", err)
			}
			if _, updates := f.counts(); updates != 0 {
				t.Fatalf("updates = %d, want 0", updates)
			}
		})
	}
}

func TestBeginPlayback(t *testing.T) {
	f := newFake("L2")
	s := loaded(t, f, Options{})

	m, notice, started, err := s.BeginPlayback()
	if err != nil || !started {
		t.Fatalf("BeginPlayback = started %v err %v, want started", started, err)
	}
	if !m.MarkComplete || notice.Text != "Lecture marked as completed" {
		t.Fatalf("mutation=%+v notice=%+v", m, notice)
	}
	if _, err := s.Commit(context.Background(), m); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	if _, _, started, _ := s.BeginPlayback(); started {
		t.Fatalf("BeginPlayback started on a viewed lecture")
	}
	if err := s.Select("L2"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, _, started, _ := s.BeginPlayback(); started {
		t.Fatalf("BeginPlayback started on an already viewed lecture")
	}
	if err := s.Select("L3"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, ok := s.Playable(); ok {
		t.Fatalf("L3 has no video but is playable")
	}
	if _, _, started, _ := s.BeginPlayback(); started {
		t.Fatalf("BeginPlayback started on a lecture without video")
	}
	if _, updates := f.counts(); updates != 1 {
		t.Fatalf("updates = %d, want 1", updates)
	}
}

func TestClose_DropsLateCompletions(t *testing.T) {
	f := newFake()
	started := make(chan struct{})
	release := make(chan struct{})
	f.fetchHook = func(call int) {
		if call == 1 {
			close(started)
			<-release
		}
	}
	s := New(f, "c1", Options{Viewer: member, Purchased: true})

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	<-started
	s.Close()
	close(release)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("Load error = %v, want ErrClosed", err)
	}
	v := s.View()
	if v.Phase != PhaseClosed || len(v.Lectures) != 0 {
		t.Fatalf("closed view = %+v, want no lectures", v)
	}
	if err := s.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Load after Close error = %v, want ErrClosed", err)
	}
}

func TestClose_DropsLateUpdateResult(t *testing.T) {
	f := newFake()
	s := loaded(t, f, Options{})
	f.updateHook = func(string) { s.Close() }

	m, _, err := s.BeginToggle()
	if err != nil {
		t.Fatalf("BeginToggle returned error: %v", err)
	}
	if _, err := s.Commit(context.Background(), m); !errors.Is(err, ErrClosed) {
		t.Fatalf("Commit error = %v, want ErrClosed", err)
	}
	if fetches, _ := f.counts(); fetches != 1 {
		t.Fatalf("fetches = %d, want no re-fetch after close", fetches)
	}
	if s.View().HasCurrent {
		t.Fatalf("closed view still has a current lecture")
	}
}

func TestLoad_OlderResponseIsStale(t *testing.T) {
	f := newFake()
	s := loaded(t, f, Options{})

	started := make(chan struct{})
	release := make(chan struct{})
	f.fetchHook = func(call int) {
		if call == 2 {
			close(started)
			<-release
		}
	}

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	<-started

	f.mu.Lock()
	f.viewed["L2"] = true
	f.mu.Unlock()
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("newer Load returned error: %v", err)
	}
	close(release)
	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("older Load error = %v, want ErrStale", err)
	}
	if got := viewedIDs(s.View()); len(got) != 1 || got[0] != "L2" {
		t.Fatalf("viewed = %v, want [L2]", got)
	}
}

func TestToggle_DifferentLecturesOverlap(t *testing.T) {
	f := newFake()
	s := loaded(t, f, Options{})

	m1, _, err := s.BeginToggle()
	if err != nil {
		t.Fatalf("BeginToggle L1: %v", err)
	}
	s.Next()
	m2, _, err := s.BeginToggle()
	if err != nil {
		t.Fatalf("BeginToggle L2: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, m := range []Mutation{m1, m2} {
		wg.Add(1)
		go func(m Mutation) {
			defer wg.Done()
			if _, err := s.Commit(context.Background(), m); err != nil {
				errs <- err
			}
		}(m)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Commit returned error: %v", err)
	}

	v := s.View()
	if v.Phase != PhaseReady {
		t.Fatalf("Phase = %s, want ready", v.Phase)
	}
	if got := viewedIDs(v); len(got) != 2 || got[0] != "L1" || got[1] != "L2" {
		t.Fatalf("viewed = %v, want [L1 L2]", got)
	}
}

func TestToggleTwice_WithoutFetchRestoresFlag(t *testing.T) {
	f := newFake()
	f.updateErr = errors.New("offline")
	s := loaded(t, f, Options{Viewer: member, Purchased: true, Policy: PolicyKeep})
	before := s.View().Current.Viewed

	for i := 0; i < 2; i++ {
		m, _, err := s.BeginToggle()
		if err != nil {
			t.Fatalf("BeginToggle #%d returned error: %v", i+1, err)
		}
		if _, err := s.Commit(context.Background(), m); err == nil {
			t.Fatalf("Commit #%d returned nil error", i+1)
		}
		cur := s.View().Current
		wantViewed := before != (i == 0)
		if cur.Viewed != wantViewed || cur.Unsaved != (i == 0) {
			t.Fatalf("after toggle #%d viewed=%v unsaved=%v, want %v and %v", i+1, cur.Viewed, cur.Unsaved, wantViewed, i == 0)
		}
	}

	fetches, updates := f.counts()
	if fetches != 1 || updates != 2 {
		t.Fatalf("fetches=%d updates=%d, want 1 and 2", fetches, updates)
	}
}

func TestBeginToggle_FirstLoadNotReady(t *testing.T) {
	f := newFake()
	started := make(chan struct{})
	release := make(chan struct{})
	f.fetchHook = func(call int) {
		if call == 1 {
			close(started)
			<-release
		}
	}
	s := New(f, "c1", Options{Viewer: member, Purchased: true})

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	<-started
	if _, _, err := s.BeginToggle(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("BeginToggle error = %v, want ErrNotReady", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
}

func TestBeginPlayback_DuringRefetch(t *testing.T) {
	f := newFake()
	s := loaded(t, f, Options{})
	if !s.Next() {
		t.Fatalf("Next returned false")
	}

	started := make(chan struct{})
	release := make(chan struct{})
	f.fetchHook = func(call int) {
		if call == 2 {
			close(started)
			<-release
		}
	}
	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	<-started

	m, _, ok, err := s.BeginPlayback()
	if err != nil || !ok {
		t.Fatalf("BeginPlayback during refetch = started %v err %v, want started", ok, err)
	}
	if m.LectureID != "L2" || !m.MarkComplete {
		t.Fatalf("mutation = %+v, want L2 markComplete", m)
	}
	if v := s.View(); v.Phase != PhaseLoading || !v.Current.Viewed || !v.Current.Pending {
		t.Fatalf("view = phase %s current %+v, want loading with L2 viewed and pending", v.Phase, v.Current)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("refetch returned error: %v", err)
	}
	if v := s.View(); v.Phase != PhaseMutating || !v.Current.Viewed {
		t.Fatalf("after refetch phase=%s viewed=%v, want mutating and viewed", v.Phase, v.Current.Viewed)
	}

	if _, err := s.Commit(context.Background(), m); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	v := s.View()
	if got := viewedIDs(v); v.Phase != PhaseReady || len(got) != 1 || got[0] != "L2" {
		t.Fatalf("settled phase=%s viewed=%v, want ready and [L2]", v.Phase, got)
	}
	if fetches, updates := f.counts(); fetches != 3 || updates != 1 {
		t.Fatalf("fetches=%d updates=%d, want 3 and 1", fetches, updates)
	}
}

func TestCommitFailure_Logged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	f := newFake()
	f.updateErr = errors.New("boom")
	s := loaded(t, f, Options{Viewer: member, Purchased: true, Logger: zap.New(core), ViewID: "abc"})

	if _, err := s.Toggle(context.Background()); err == nil {
		t.Fatalf("Toggle returned nil error")
	}
	entries := logs.FilterMessage("lecture update failed").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["view"] != "abc" || fields["lecture"] != "L1" || fields["policy"] != "revert" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestParseFailurePolicy(t *testing.T) {
	for in, want := range map[string]FailurePolicy{"": PolicyRevert, "Revert": PolicyRevert, " keep ": PolicyKeep} {
		got, err := ParseFailurePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseFailurePolicy(%q) = (%v, %v), want %v", in, got, err, want)
		}
	}
	if _, err := ParseFailurePolicy("retry"); err == nil {
		t.Fatalf("ParseFailurePolicy(retry) returned nil error")
	}
}
