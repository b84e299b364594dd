package course

import (
	"testing"
	"time"

	"github.com/five82/lectern/internal/api"
)

func sampleCourse() Course {
	return Course{
		ID:    "c1",
		Title: "Go",
		Lectures: []Lecture{
			{ID: "L1", Title: "Intro", VideoURL: "https://v/1.mp4"},
			{ID: "L2", Title: "Types"},
			{ID: "L3", Title: " "},
		},
		Purchased: true,
	}
}

func TestCourse_OrdinalLookup(t *testing.T) {
	c := sampleCourse()
	cases := []struct {
		id   string
		want int
	}{
		{"L1", 1},
		{"L2", 2},
		{"L3", 3},
		{"missing", 0},
	}
	for _, tc := range cases {
		if got := c.Ordinal(tc.id); got != tc.want {
			t.Fatalf("Ordinal(%q) = %d, want %d", tc.id, got, tc.want)
		}
	}
	if !c.Has("L2") || c.Has("L9") {
		t.Fatalf("Has returned unexpected membership")
	}
	if ids := c.LectureIDs(); len(ids) != 3 || ids[2] != "L3" {
		t.Fatalf("LectureIDs = %v, want [L1 L2 L3]", ids)
	}
}

func TestLecture_DisplayHelpers(t *testing.T) {
	c := sampleCourse()
	if got := c.Lectures[2].DisplayTitle(); got != "Untitled" {
		t.Fatalf("DisplayTitle = %q, want Untitled", got)
	}
	if c.Lectures[1].HasVideo() {
		t.Fatalf("HasVideo = true for lecture without media")
	}
	if !c.Lectures[0].HasVideo() {
		t.Fatalf("HasVideo = false for lecture with media")
	}
}

func TestFromProgress_TrimsAndKeepsOrder(t *testing.T) {
	details := api.CourseDetails{
		CourseTitle: "Go",
		Lectures: []api.LectureSummary{
			{ID: " L1 ", LectureTitle: "Intro", VideoURL: " https://v/1.mp4 "},
			{ID: "L2", LectureTitle: "Types"},
		},
	}
	c := FromProgress("c1", false, details)
	if c.ID != "c1" || c.Title != "Go" || c.Purchased {
		t.Fatalf("course = %#v, want unpurchased c1 titled Go", c)
	}
	if c.Lectures[0].ID != "L1" || c.Lectures[0].VideoURL != "https://v/1.mp4" {
		t.Fatalf("lecture = %#v, want trimmed id and url", c.Lectures[0])
	}
}

func TestFromDetail(t *testing.T) {
	resp := api.CourseDetailResponse{
		Course: api.CourseDetail{
			CourseTitle: "Go",
			SubTitle:    "Basics",
			Description: "<p>Learn</p>",
			CoursePrice: 499,
			Creator:     api.Creator{Name: "Ann"},
			CreatedAt:   "2024-03-05T10:00:00Z",
			Lectures:    []api.DetailLecture{{LectureTitle: "Intro", VideoURL: "u"}},
		},
		Purchased: true,
	}
	d := FromDetail("c1", resp)
	if !d.Course.Purchased || d.CreatorName != "Ann" || d.Price != 499 {
		t.Fatalf("detail = %#v, want purchased course by Ann at 499", d)
	}
	if len(d.Course.Lectures) != 1 || d.Course.Lectures[0].Title != "Intro" {
		t.Fatalf("lectures = %#v, want Intro", d.Course.Lectures)
	}
	if d.UpdatedAt.Month() != time.March {
		t.Fatalf("UpdatedAt = %v, want March", d.UpdatedAt)
	}
}
