package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/lectern/internal/access"
	"github.com/five82/lectern/internal/course"
	"github.com/five82/lectern/internal/player"
	"github.com/five82/lectern/internal/progress"
	"github.com/five82/lectern/internal/resume"
)

// Messages. Results of synchronizer work carry the synchronizer that issued
// them so a reply for a closed view is ignored.

type tickMsg time.Time

type detailMsg struct {
	decision access.Decision
	detail   *course.Detail
	err      error
}

type progressLoadedMsg struct {
	sync *progress.Synchronizer
	err  error
}

type commitDoneMsg struct {
	sync   *progress.Synchronizer
	notice progress.Notice
	err    error
}

type playbackMsg struct {
	sync      *progress.Synchronizer
	lectureID string
	title     string
	err       error
}

type resumeMsg struct {
	sync      *progress.Synchronizer
	lectureID string
	ok        bool
	err       error
}

type resumeSavedMsg struct {
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) requestDetailCmd() tea.Cmd {
	gate, ctx, courseID, v := m.gate, m.ctx, m.courseID, m.viewer
	return func() tea.Msg {
		if gate == nil {
			return detailMsg{decision: access.DecisionPrompt}
		}
		decision, detail, err := gate.RequestDetail(ctx, courseID, v)
		return detailMsg{decision: decision, detail: detail, err: err}
	}
}

func loadProgressCmd(ctx context.Context, s *progress.Synchronizer) tea.Cmd {
	return func() tea.Msg {
		return progressLoadedMsg{sync: s, err: s.Load(ctx)}
	}
}

func commitCmd(ctx context.Context, s *progress.Synchronizer, m progress.Mutation) tea.Cmd {
	return func() tea.Msg {
		notice, err := s.Commit(ctx, m)
		return commitDoneMsg{sync: s, notice: notice, err: err}
	}
}

func launchCmd(ctx context.Context, l player.Launcher, s *progress.Synchronizer, lecture course.Lecture) tea.Cmd {
	return func() tea.Msg {
		err := l.Launch(ctx, lecture.VideoURL)
		return playbackMsg{sync: s, lectureID: lecture.ID, title: lecture.DisplayTitle(), err: err}
	}
}

func lookupResumeCmd(ctx context.Context, store ResumeStore, s *progress.Synchronizer, viewerID string) tea.Cmd {
	return func() tea.Msg {
		pos, ok, err := store.Lookup(ctx, viewerID, s.CourseID())
		return resumeMsg{sync: s, lectureID: pos.LectureID, ok: ok, err: err}
	}
}

// saveResumeCmd records the current lecture. Anonymous viewers have nothing
// to key a position on.
func (m Model) saveResumeCmd() tea.Cmd {
	if m.resume == nil || !m.viewer.Authenticated() || !m.view.HasCurrent {
		return nil
	}
	store, ctx := m.resume, m.ctx
	pos := resume.Position{
		ViewerID:  m.viewer.UID,
		CourseID:  m.courseID,
		LectureID: m.view.Current.Lecture.ID,
		UpdatedAt: m.now(),
	}
	return func() tea.Msg {
		return resumeSavedMsg{err: store.Save(ctx, pos)}
	}
}
