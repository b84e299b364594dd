package devserver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	gonanoid "github.com/matoous/go-nanoid"
	toml "github.com/pelletier/go-toml/v2"
)

// Fixtures seeds the development backend.
type Fixtures struct {
	Courses   []CourseFixture   `toml:"courses"`
	Purchases []PurchaseFixture `toml:"purchases"`
	Progress  []ProgressFixture `toml:"progress"`
}

// CourseFixture is one course with its lectures.
type CourseFixture struct {
	ID          string           `toml:"id"`
	Title       string           `toml:"title"`
	SubTitle    string           `toml:"subtitle"`
	Description string           `toml:"description"`
	Price       float64          `toml:"price"`
	Creator     string           `toml:"creator"`
	CreatedAt   string           `toml:"created_at"`
	Lectures    []LectureFixture `toml:"lectures"`
}

// LectureFixture is one lecture of a course.
type LectureFixture struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	VideoURL string `toml:"video_url"`
}

// PurchaseFixture unlocks Course for User.
type PurchaseFixture struct {
	User   string `toml:"user"`
	Course string `toml:"course"`
}

// ProgressFixture marks Lecture viewed for User.
type ProgressFixture struct {
	User    string `toml:"user"`
	Course  string `toml:"course"`
	Lecture string `toml:"lecture"`
}

const idLength = 12

// LoadFixtures reads fixtures from a TOML file. An empty path returns SampleFixtures.
func LoadFixtures(path string) (Fixtures, error) {
	if strings.TrimSpace(path) == "" {
		return SampleFixtures(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("open fixtures: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Fixtures{}, fmt.Errorf("read fixtures: %w", err)
	}
	var fx Fixtures
	if err := toml.Unmarshal(bytes, &fx); err != nil {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := fx.normalize(); err != nil {
		return Fixtures{}, err
	}
	return fx, nil
}

// normalize trims values, assigns ids to entries without one and rejects duplicates.
func (f *Fixtures) normalize() error {
	seen := make(map[string]bool, len(f.Courses))
	for i := range f.Courses {
		c := &f.Courses[i]
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			id, err := gonanoid.Nanoid(idLength)
			if err != nil {
				return fmt.Errorf("generate course id: %w", err)
			}
			c.ID = id
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate course id %q", c.ID)
		}
		seen[c.ID] = true

		lectures := make(map[string]bool, len(c.Lectures))
		for j := range c.Lectures {
			l := &c.Lectures[j]
			l.ID = strings.TrimSpace(l.ID)
			l.VideoURL = strings.TrimSpace(l.VideoURL)
			if l.ID == "" {
				id, err := gonanoid.Nanoid(idLength)
				if err != nil {
					return fmt.Errorf("generate lecture id: %w", err)
				}
				l.ID = id
			}
			if lectures[l.ID] {
				return fmt.Errorf("course %q: duplicate lecture id %q", c.ID, l.ID)
			}
			lectures[l.ID] = true
		}
	}
	for _, p := range f.Purchases {
		if !seen[strings.TrimSpace(p.Course)] {
			return fmt.Errorf("purchase references unknown course %q", p.Course)
		}
	}
	if len(f.Courses) == 0 {
		return errors.New("fixtures contain no courses")
	}
	return nil
}

// SampleFixtures returns a small catalog: user "demo" owns course "go-basics"
// and has watched its first lecture; "tour" is not purchased by anyone.
func SampleFixtures() Fixtures {
	return Fixtures{
		Courses: []CourseFixture{
			{
				ID:          "go-basics",
				Title:       "Go Basics",
				SubTitle:    "From zero to goroutines",
				Description: "<p>Learn <b>Go</b> by building small tools.</p>",
				Price:       49,
				Creator:     "Ada Example",
				CreatedAt:   "2026-01-15T09:00:00Z",
				Lectures: []LectureFixture{
					{ID: "gb-1", Title: "Installing Go", VideoURL: "https://media.example.com/gb-1.mp4"},
					{ID: "gb-2", Title: "Packages and modules", VideoURL: "https://media.example.com/gb-2.mp4"},
					{ID: "gb-3", Title: "Concurrency", VideoURL: "https://media.example.com/gb-3.mp4"},
					{ID: "gb-4", Title: "", VideoURL: ""},
				},
			},
			{
				ID:          "tour",
				Title:       "Tooling Tour",
				SubTitle:    "Editors, linters and debuggers",
				Description: "A quick look at the Go toolchain.",
				Price:       0,
				Creator:     "Ada Example",
				CreatedAt:   "2026-02-01",
				Lectures: []LectureFixture{
					{ID: "tt-1", Title: "go vet", VideoURL: "https://media.example.com/tt-1.mp4"},
				},
			},
		},
		Purchases: []PurchaseFixture{{User: "demo", Course: "go-basics"}},
		Progress:  []ProgressFixture{{User: "demo", Course: "go-basics", Lecture: "gb-1"}},
	}
}
