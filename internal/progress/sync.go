package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid"
	"go.uber.org/zap"

	"github.com/five82/lectern/internal/access"
	"github.com/five82/lectern/internal/api"
	"github.com/five82/lectern/internal/course"
	"github.com/five82/lectern/internal/viewer"
)

var (
	// ErrInFlight is returned when the lecture already has a toggle waiting on the backend.
	ErrInFlight = errors.New("lecture update already in flight")
	// ErrClosed is returned for any operation on, or completion after, Close.
	ErrClosed = errors.New("progress view closed")
	// ErrNotReady is returned when progress has not been loaded.
	ErrNotReady = errors.New("progress not loaded")
	// ErrNotEntitled is returned when the viewer has not unlocked the course.
	ErrNotEntitled = errors.New("course not unlocked")
	// ErrNoLecture is returned when no lecture is selected or the id is unknown.
	ErrNoLecture = errors.New("no such lecture")
	// ErrStale marks a fetch result that a newer fetch superseded.
	ErrStale = errors.New("stale progress response")
)

const (
	msgCompleted   = "Lecture marked as completed"
	msgIncomplete  = "Lecture marked as incomplete"
	msgToggleError = "Failed to update lecture progress"
	msgLoadError   = "Failed to load course progress"
)

// FailurePolicy decides what happens to an optimistic value when its request fails.
type FailurePolicy int

const (
	// PolicyRevert restores the last authoritative value.
	PolicyRevert FailurePolicy = iota
	// PolicyKeep leaves the optimistic value in place until the next fetch.
	PolicyKeep
)

func (p FailurePolicy) String() string {
	if p == PolicyKeep {
		return "keep"
	}
	return "revert"
}

// ParseFailurePolicy accepts "revert", "keep" or an empty string (revert).
func ParseFailurePolicy(value string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "revert":
		return PolicyRevert, nil
	case "keep":
		return PolicyKeep, nil
	default:
		return PolicyRevert, fmt.Errorf("unknown failure policy %q", value)
	}
}

// Level classifies a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Notice is a transient message for the viewer.
type Notice struct {
	Level Level
	Text  string
}

// Empty reports whether there is nothing to show.
func (n Notice) Empty() bool { return n.Text == "" }

// Mutation is an optimistic toggle that still has to be committed.
type Mutation struct {
	LectureID    string
	MarkComplete bool
}

// Options configures a Synchronizer.
type Options struct {
	Viewer    viewer.Viewer
	Purchased bool
	Policy    FailurePolicy
	Logger    *zap.Logger
	// ViewID tags log lines; a short random id is generated when empty.
	ViewID string
}

// LectureView is one row of the lecture list.
type LectureView struct {
	Lecture  course.Lecture
	Ordinal  int
	Viewed   bool
	Selected bool
	Pending  bool
	Playable bool
	// Unsaved is set when the local flag differs from the last server
	// snapshot and no request is pending for it.
	Unsaved bool
}

// View is a consistent snapshot for rendering.
type View struct {
	ViewID     string
	CourseID   string
	Title      string
	Phase      Phase
	Err        error
	Entitled   bool
	Lectures   []LectureView
	Current    LectureView
	HasCurrent bool
	Completed  int
}

// Synchronizer owns one course-progress view: the lecture list, the local
// progress set, the navigator and every request that changes them.
type Synchronizer struct {
	client   api.ProgressAPI
	courseID string
	viewer   viewer.Viewer
	policy   FailurePolicy
	logger   *zap.Logger
	viewID   string

	mu        sync.Mutex
	phase     Phase
	purchased bool
	course    course.Course
	store     *Store
	nav       course.Navigator
	pending   map[string]bool
	epoch     uint64
	lastErr   error
	// loaded is set once a snapshot has been installed.
	loaded bool
}

// New returns an idle Synchronizer for courseID.
func New(client api.ProgressAPI, courseID string, opts Options) *Synchronizer {
	viewID := strings.TrimSpace(opts.ViewID)
	if viewID == "" {
		if id, err := gonanoid.Nanoid(8); err == nil {
			viewID = id
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		client:    client,
		courseID:  courseID,
		viewer:    opts.Viewer,
		policy:    opts.Policy,
		logger:    logger.With(zap.String("view", viewID), zap.String("course", courseID)),
		viewID:    viewID,
		phase:     PhaseIdle,
		purchased: opts.Purchased,
		course:    course.Course{ID: courseID, Purchased: opts.Purchased},
		store:     NewStore([]string{}),
		pending:   make(map[string]bool),
	}
}

// ViewID returns the id attached to this view's log lines.
func (s *Synchronizer) ViewID() string { return s.viewID }

// CourseID returns the course this view shows.
func (s *Synchronizer) CourseID() string { return s.courseID }

// Phase returns the current lifecycle phase.
func (s *Synchronizer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Load fetches the course progress. From Idle or Failed it opens the view;
// from Ready or Mutating it refreshes it. There is no automatic retry.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	ev := eventOpen
	if s.phase != PhaseIdle && s.phase != PhaseFailed {
		ev = eventRefetch
	}
	if !s.applyLocked(ev) {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	return s.fetch(ctx, epoch)
}

func (s *Synchronizer) fetch(ctx context.Context, epoch uint64) error {
	if s.client == nil {
		return s.finishFetch(epoch, nil, errors.New("no backend"))
	}
	resp, err := s.client.FetchCourseProgress(ctx, s.courseID)
	return s.finishFetch(epoch, resp, err)
}

func (s *Synchronizer) finishFetch(epoch uint64, resp *api.CourseProgressResponse, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseClosed {
		s.logger.Debug("dropping progress response after close")
		return ErrClosed
	}
	if epoch != s.epoch {
		s.logger.Debug("dropping stale progress response", zap.Uint64("epoch", epoch), zap.Uint64("current", s.epoch))
		return ErrStale
	}
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		s.lastErr = err
		s.applyLocked(eventFetchFailed)
		s.logger.Warn("progress fetch failed", zap.Error(err))
		return fmt.Errorf("fetch course progress: %w", err)
	}

	s.course = course.FromProgress(s.courseID, s.purchased, resp.Data.CourseDetails)
	s.store.SetScope(s.course.LectureIDs())
	records := make([]Record, 0, len(resp.Data.Progress))
	for _, p := range resp.Data.Progress {
		records = append(records, Record{LectureID: p.LectureID, Viewed: p.Viewed})
	}
	s.store.ReplaceAll(records)
	for id, target := range s.pending {
		s.store.SetViewed(id, target)
	}
	s.nav.Refresh(s.course)
	s.nav.SelectFirst(s.course)
	s.lastErr = nil
	s.loaded = true
	s.applyLocked(eventFetched)
	s.logger.Info("progress loaded",
		zap.Int("lectures", len(s.course.Lectures)),
		zap.Int("viewed", s.store.Count()),
		zap.Int("pending", len(s.pending)),
	)
	return nil
}

// BeginToggle flips the current lecture's viewed flag locally and returns
// the mutation to commit together with the optimistic notice.
func (s *Synchronizer) BeginToggle() (Mutation, Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginToggleLocked()
}

func (s *Synchronizer) beginToggleLocked() (Mutation, Notice, error) {
	if s.phase == PhaseClosed {
		return Mutation{}, Notice{}, ErrClosed
	}
	if _, ok := transition(s.phase, eventToggle, len(s.pending)+1); !ok || !s.loaded {
		return Mutation{}, Notice{}, ErrNotReady
	}
	l, ok := s.nav.Current()
	if !ok || !s.course.Has(l.ID) {
		return Mutation{}, Notice{}, ErrNoLecture
	}
	if !access.Entitled(s.viewer, s.course) {
		return Mutation{}, Notice{}, ErrNotEntitled
	}
	if _, busy := s.pending[l.ID]; busy {
		s.logger.Debug("toggle ignored, request in flight", zap.String("lecture", l.ID))
		return Mutation{}, Notice{}, ErrInFlight
	}

	target := !s.store.Get(l.ID)
	s.pending[l.ID] = target
	s.applyLocked(eventToggle)
	s.store.SetViewed(l.ID, target)

	text := msgIncomplete
	if target {
		text = msgCompleted
	}
	s.logger.Info("lecture toggled", zap.String("lecture", l.ID), zap.Bool("markComplete", target))
	return Mutation{LectureID: l.ID, MarkComplete: target}, Notice{Level: LevelSuccess, Text: text}, nil
}

// Commit sends m to the backend. On success the full progress set is fetched
// again and replaces the local one. On failure the FailurePolicy is applied
// and an error notice is returned; the view stays usable.
func (s *Synchronizer) Commit(ctx context.Context, m Mutation) (Notice, error) {
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return Notice{}, ErrClosed
	}
	if target, ok := s.pending[m.LectureID]; !ok || target != m.MarkComplete {
		s.mu.Unlock()
		return Notice{}, fmt.Errorf("commit lecture %s: no matching toggle", m.LectureID)
	}
	s.mu.Unlock()

	var err error
	if s.client == nil {
		err = errors.New("no backend")
	} else {
		err = s.client.UpdateLectureProgress(ctx, s.courseID, m.LectureID, m.MarkComplete)
	}

	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		s.logger.Debug("dropping update result after close", zap.String("lecture", m.LectureID))
		return Notice{}, ErrClosed
	}
	delete(s.pending, m.LectureID)

	if err != nil {
		restored := s.store.Get(m.LectureID)
		if s.policy == PolicyRevert {
			restored = s.store.Revert(m.LectureID)
		}
		s.applyLocked(eventSettled)
		s.mu.Unlock()
		s.logger.Warn("lecture update failed",
			zap.String("lecture", m.LectureID),
			zap.Bool("markComplete", m.MarkComplete),
			zap.Stringer("policy", s.policy),
			zap.Bool("viewed", restored),
			zap.Error(err),
		)
		return Notice{Level: LevelError, Text: msgToggleError}, fmt.Errorf("update lecture %s: %w", m.LectureID, err)
	}

	if !s.applyLocked(eventRefetch) {
		s.mu.Unlock()
		return Notice{}, nil
	}
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	if err := s.fetch(ctx, epoch); err != nil {
		if errors.Is(err, ErrStale) || errors.Is(err, ErrClosed) {
			return Notice{}, nil
		}
		return Notice{Level: LevelError, Text: msgLoadError}, err
	}
	return Notice{}, nil
}

// Toggle runs BeginToggle and Commit back to back. The optimistic notice is
// returned on success.
func (s *Synchronizer) Toggle(ctx context.Context) (Notice, error) {
	m, optimistic, err := s.BeginToggle()
	if err != nil {
		return Notice{}, err
	}
	if n, err := s.Commit(ctx, m); err != nil {
		return n, err
	}
	return optimistic, nil
}

// BeginPlayback marks the current lecture complete when playback starts.
// Nothing is started when the lecture is already viewed or not playable.
func (s *Synchronizer) BeginPlayback() (Mutation, Notice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseClosed {
		return Mutation{}, Notice{}, false, ErrClosed
	}
	l, ok := s.nav.Current()
	if !ok {
		return Mutation{}, Notice{}, false, ErrNoLecture
	}
	if !access.CanPlay(s.viewer, s.course, l) || !l.HasVideo() || s.store.Get(l.ID) {
		return Mutation{}, Notice{}, false, nil
	}
	m, n, err := s.beginToggleLocked()
	if err != nil {
		return Mutation{}, Notice{}, false, err
	}
	return m, n, true, nil
}

// Playable returns the current lecture when the viewer may play it and it has media.
func (s *Synchronizer) Playable() (course.Lecture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.nav.Current()
	if !ok || !access.CanPlay(s.viewer, s.course, l) || !l.HasVideo() {
		return course.Lecture{}, false
	}
	return l, true
}

// Select makes lectureID current. Selection is not access gated.
func (s *Synchronizer) Select(lectureID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseClosed {
		return ErrClosed
	}
	l, ok := s.course.Lecture(lectureID)
	if !ok {
		return ErrNoLecture
	}
	s.nav.Select(s.course, l)
	return nil
}

// Next moves the selection down one lecture.
func (s *Synchronizer) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return false
	}
	return s.nav.Next(s.course)
}

// Prev moves the selection up one lecture.
func (s *Synchronizer) Prev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return false
	}
	return s.nav.Prev(s.course)
}

// View returns a snapshot for rendering. Viewed flags are masked while the
// course is not unlocked.
func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	entitled := access.Entitled(s.viewer, s.course)
	v := View{
		ViewID:   s.viewID,
		CourseID: s.courseID,
		Title:    s.course.Title,
		Phase:    s.phase,
		Err:      s.lastErr,
		Entitled: entitled,
	}
	if len(s.course.Lectures) > 0 {
		v.Lectures = make([]LectureView, 0, len(s.course.Lectures))
	}
	for i, l := range s.course.Lectures {
		_, pending := s.pending[l.ID]
		local := s.store.Get(l.ID)
		row := LectureView{
			Lecture:  l,
			Ordinal:  i + 1,
			Viewed:   entitled && local,
			Selected: s.nav.IsSelected(l),
			Pending:  pending,
			Playable: access.CanPlay(s.viewer, s.course, l) && l.HasVideo(),
			Unsaved:  entitled && !pending && local != s.store.Authoritative(l.ID),
		}
		if row.Viewed {
			v.Completed++
		}
		if row.Selected {
			v.Current = row
			v.HasCurrent = true
		}
		v.Lectures = append(v.Lectures, row)
	}
	if !v.HasCurrent {
		if l, ok := s.nav.Current(); ok {
			v.Current = LectureView{Lecture: l, Ordinal: s.nav.OrdinalOf(s.course, l), Selected: true}
			v.HasCurrent = true
		}
	}
	return v
}

// Close discards the view. Completions that arrive later are dropped.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return
	}
	s.applyLocked(eventClose)
	s.nav.Reset()
	s.logger.Debug("progress view closed", zap.Int("pending", len(s.pending)))
}

func (s *Synchronizer) applyLocked(ev event) bool {
	next, ok := transition(s.phase, ev, len(s.pending))
	if !ok {
		s.logger.Debug("transition rejected", zap.Stringer("phase", s.phase), zap.Stringer("event", ev))
		return false
	}
	if next != s.phase {
		s.logger.Debug("phase changed", zap.Stringer("from", s.phase), zap.Stringer("to", next), zap.Stringer("event", ev))
	}
	s.phase = next
	return true
}
