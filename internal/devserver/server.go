// Package devserver is an in-memory implementation of the learning platform
// API used for local development and end-to-end tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/five82/lectern/internal/api"
)

// Options configures the server.
type Options struct {
	Secret   string
	TokenTTL time.Duration
	// FailUpdates makes every progress update answer 500.
	FailUpdates bool
	Logger      *zap.Logger
}

// Server serves the course-progress and course-detail endpoints under /api/v1.
type Server struct {
	echo        *echo.Echo
	catalog     *catalog
	issuer      *Issuer
	logger      *zap.Logger
	failUpdates atomic.Bool
}

// New builds a server seeded with fx.
func New(fx Fixtures, opts Options) (*Server, error) {
	if err := fx.normalize(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, errors.New("devserver: secret is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		echo:    echo.New(),
		catalog: newCatalog(fx),
		issuer:  NewIssuer(opts.Secret, opts.TokenTTL),
		logger:  logger,
	}
	s.failUpdates.Store(opts.FailUpdates)
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(Logging(s.logger, func(c echo.Context) bool {
		return c.Path() == "/healthz"
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	v1 := e.Group("/api/v1", VerifyToken(s.issuer))
	v1.GET("/course-progress/:courseId", s.handleGetProgress)
	v1.POST("/course-progress/:courseId/lecture/:lectureId", s.handleUpdateProgress)
	v1.GET("/course-detail/:courseId", s.handleGetDetail)
}

// Handler exposes the server for httptest or a custom listener.
func (s *Server) Handler() http.Handler { return s.echo }

// Issuer returns the token issuer so callers can mint sessions.
func (s *Server) Issuer() *Issuer { return s.issuer }

// SetFailUpdates toggles update fault injection at runtime.
func (s *Server) SetFailUpdates(fail bool) { s.failUpdates.Store(fail) }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("devserver listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) entitledCourse(c echo.Context) (CourseFixture, string, error) {
	claims := claimsFrom(c)
	if claims == nil {
		return CourseFixture{}, "", echo.NewHTTPError(http.StatusUnauthorized, "Sign in to continue")
	}
	courseID := c.Param("courseId")
	course, ok := s.catalog.course(courseID)
	if !ok {
		return CourseFixture{}, "", echo.NewHTTPError(http.StatusNotFound, "Course not found")
	}
	if !s.catalog.purchased(claims.UID, courseID) {
		return CourseFixture{}, "", echo.NewHTTPError(http.StatusForbidden, "Course not purchased")
	}
	return course, claims.UID, nil
}

func (s *Server) handleGetProgress(c echo.Context) error {
	course, uid, err := s.entitledCourse(c)
	if err != nil {
		return err
	}
	lectures := make([]api.LectureSummary, 0, len(course.Lectures))
	for _, l := range course.Lectures {
		lectures = append(lectures, api.LectureSummary{ID: l.ID, LectureTitle: l.Title, VideoURL: l.VideoURL})
	}
	viewed := s.catalog.viewed(uid, course.ID)
	progress := make([]api.ProgressEntry, 0, len(viewed))
	for _, id := range viewed {
		progress = append(progress, api.ProgressEntry{LectureID: id, Viewed: true})
	}
	return c.JSON(http.StatusOK, api.CourseProgressResponse{Data: api.CourseProgressData{
		CourseDetails: api.CourseDetails{CourseTitle: course.Title, Lectures: lectures},
		Progress:      progress,
	}})
}

func (s *Server) handleUpdateProgress(c echo.Context) error {
	course, uid, err := s.entitledCourse(c)
	if err != nil {
		return err
	}
	lectureID := c.Param("lectureId")
	found := false
	for _, l := range course.Lectures {
		if l.ID == lectureID {
			found = true
			break
		}
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "Lecture not found")
	}

	var body api.UpdateProgressRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if s.failUpdates.Load() {
		return echo.NewHTTPError(http.StatusInternalServerError, "Injected update failure")
	}

	s.catalog.setViewed(uid, course.ID, lectureID, body.MarkComplete)
	return c.JSON(http.StatusOK, map[string]string{"message": "Lecture progress updated"})
}

func (s *Server) handleGetDetail(c echo.Context) error {
	claims := claimsFrom(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Sign in to continue")
	}
	courseID := c.Param("courseId")
	course, ok := s.catalog.course(courseID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Course not found")
	}

	enrolled := s.catalog.enrolled(courseID)
	students := make([]json.RawMessage, 0, len(enrolled))
	for _, uid := range enrolled {
		students = append(students, json.RawMessage(strconv.Quote(uid)))
	}
	lectures := make([]api.DetailLecture, 0, len(course.Lectures))
	for _, l := range course.Lectures {
		lectures = append(lectures, api.DetailLecture{ID: l.ID, LectureTitle: l.Title, VideoURL: l.VideoURL})
	}
	return c.JSON(http.StatusOK, api.CourseDetailResponse{
		Course: api.CourseDetail{
			ID:               course.ID,
			CourseTitle:      course.Title,
			SubTitle:         course.SubTitle,
			Description:      course.Description,
			CoursePrice:      course.Price,
			Creator:          api.Creator{Name: course.Creator},
			EnrolledStudents: students,
			CreatedAt:        course.CreatedAt,
			Lectures:         lectures,
		},
		Purchased: s.catalog.purchased(claims.UID, courseID),
	})
}
