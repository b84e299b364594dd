package api

import (
	"encoding/json"
	"strings"
	"time"
)

// CourseProgressResponse mirrors GET /course-progress/{courseId}.
type CourseProgressResponse struct {
	Data CourseProgressData `json:"data"`
}

// CourseProgressData carries the lecture list and the viewer's progress set.
type CourseProgressData struct {
	CourseDetails CourseDetails   `json:"courseDetails"`
	Progress      []ProgressEntry `json:"progress" validate:"dive"`
}

// CourseDetails is the course summary embedded in the progress payload.
type CourseDetails struct {
	CourseTitle string           `json:"courseTitle"`
	Lectures    []LectureSummary `json:"lectures" validate:"dive"`
}

// LectureSummary describes one lecture of the course-progress payload.
type LectureSummary struct {
	ID           string `json:"_id" validate:"required"`
	LectureTitle string `json:"lectureTitle"`
	VideoURL     string `json:"videoUrl"`
}

// ProgressEntry is a single per-lecture completion marker.
type ProgressEntry struct {
	LectureID string `json:"lectureId" validate:"required"`
	Viewed    bool   `json:"viewed"`
}

// UpdateProgressRequest is the body of POST /course-progress/{courseId}/lecture/{lectureId}.
type UpdateProgressRequest struct {
	MarkComplete bool `json:"markComplete"`
}

// CourseDetailResponse mirrors GET /course-detail/{courseId}.
type CourseDetailResponse struct {
	Course    CourseDetail `json:"course"`
	Purchased bool         `json:"purchased"`
}

// CourseDetail is the full course description shown on the detail screen.
type CourseDetail struct {
	ID               string            `json:"_id"`
	CourseTitle      string            `json:"courseTitle"`
	SubTitle         string            `json:"subTitle"`
	Description      string            `json:"description"`
	CoursePrice      float64           `json:"coursePrice"`
	Creator          Creator           `json:"creator"`
	EnrolledStudents []json.RawMessage `json:"enrolledStudents"`
	CreatedAt        string            `json:"createdAt"`
	Lectures         []DetailLecture   `json:"lectures"`
}

// Creator identifies the course author.
type Creator struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photoUrl"`
}

// DetailLecture is a lecture as listed on the detail endpoint. The id is optional there.
type DetailLecture struct {
	ID           string `json:"_id,omitempty"`
	LectureTitle string `json:"lectureTitle"`
	VideoURL     string `json:"videoUrl"`
}

// ParsedCreatedAt returns the creation timestamp, or the zero time when absent or malformed.
func (d CourseDetail) ParsedCreatedAt() time.Time {
	return parseTime(d.CreatedAt)
}

// EnrolledCount returns how many students are enrolled.
func (d CourseDetail) EnrolledCount() int {
	return len(d.EnrolledStudents)
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
