// Package course holds the immutable course model and lecture navigation.
package course

import (
	"strings"
	"time"

	"github.com/five82/lectern/internal/api"
)

// Lecture is a single playable unit of a course.
type Lecture struct {
	ID       string
	Title    string
	VideoURL string
}

// DisplayTitle returns the title or "Untitled" when it is blank.
func (l Lecture) DisplayTitle() string {
	if t := strings.TrimSpace(l.Title); t != "" {
		return t
	}
	return "Untitled"
}

// HasVideo reports whether the lecture carries a media reference.
func (l Lecture) HasVideo() bool {
	return strings.TrimSpace(l.VideoURL) != ""
}

// Course is an ordered lecture list plus the viewer's purchase flag.
type Course struct {
	ID        string
	Title     string
	Lectures  []Lecture
	Purchased bool
}

// IndexOf returns the zero-based position of the lecture, or -1.
func (c Course) IndexOf(lectureID string) int {
	for i, l := range c.Lectures {
		if l.ID == lectureID {
			return i
		}
	}
	return -1
}

// Ordinal returns the 1-based position of the lecture, or 0 when it is not part of the course.
func (c Course) Ordinal(lectureID string) int {
	return c.IndexOf(lectureID) + 1
}

// Has reports whether lectureID belongs to the course.
func (c Course) Has(lectureID string) bool {
	return c.IndexOf(lectureID) >= 0
}

// Lecture looks up a lecture by id.
func (c Course) Lecture(lectureID string) (Lecture, bool) {
	if idx := c.IndexOf(lectureID); idx >= 0 {
		return c.Lectures[idx], true
	}
	return Lecture{}, false
}

// LectureIDs returns the lecture ids in course order.
func (c Course) LectureIDs() []string {
	ids := make([]string, 0, len(c.Lectures))
	for _, l := range c.Lectures {
		ids = append(ids, l.ID)
	}
	return ids
}

// FromProgress builds a course from the course-progress payload.
func FromProgress(courseID string, purchased bool, details api.CourseDetails) Course {
	lectures := make([]Lecture, 0, len(details.Lectures))
	for _, l := range details.Lectures {
		lectures = append(lectures, Lecture{
			ID:       strings.TrimSpace(l.ID),
			Title:    l.LectureTitle,
			VideoURL: strings.TrimSpace(l.VideoURL),
		})
	}
	return Course{
		ID:        courseID,
		Title:     details.CourseTitle,
		Lectures:  lectures,
		Purchased: purchased,
	}
}

// Detail is the full course page.
type Detail struct {
	Course      Course
	SubTitle    string
	Description string
	Price       float64
	CreatorName string
	Enrolled    int
	UpdatedAt   time.Time
}

// FromDetail builds a Detail from the course-detail payload.
func FromDetail(courseID string, resp api.CourseDetailResponse) Detail {
	d := resp.Course
	lectures := make([]Lecture, 0, len(d.Lectures))
	for _, l := range d.Lectures {
		lectures = append(lectures, Lecture{
			ID:       strings.TrimSpace(l.ID),
			Title:    l.LectureTitle,
			VideoURL: strings.TrimSpace(l.VideoURL),
		})
	}
	return Detail{
		Course: Course{
			ID:        courseID,
			Title:     d.CourseTitle,
			Lectures:  lectures,
			Purchased: resp.Purchased,
		},
		SubTitle:    d.SubTitle,
		Description: d.Description,
		Price:       d.CoursePrice,
		CreatorName: d.Creator.Name,
		Enrolled:    d.EnrolledCount(),
		UpdatedAt:   d.ParsedCreatedAt(),
	}
}
