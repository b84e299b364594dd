// Package resume remembers the last selected lecture per course in a local
// SQLite database.
package resume

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS resume_positions (
	viewer_id  TEXT NOT NULL,
	course_id  TEXT NOT NULL,
	lecture_id TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (viewer_id, course_id)
)`

// Position is the last lecture a viewer had selected in a course.
type Position struct {
	ViewerID  string
	CourseID  string
	LectureID string
	UpdatedAt time.Time
}

// Store reads and writes resume positions.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
// ":memory:" is accepted for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("resume db path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create resume dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open resume db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate resume db: %w", err)
	}
	return nil
}

// Save upserts the position for (viewerID, courseID).
func (s *Store) Save(ctx context.Context, p Position) error {
	if p.CourseID == "" || p.LectureID == "" {
		return errors.New("save resume position: course and lecture are required")
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO resume_positions (viewer_id, course_id, lecture_id, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (viewer_id, course_id)
DO UPDATE SET lecture_id = excluded.lecture_id, updated_at = excluded.updated_at`,
		p.ViewerID, p.CourseID, p.LectureID, p.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save resume position: %w", err)
	}
	return nil
}

// Lookup returns the stored position. ok is false when none exists.
func (s *Store) Lookup(ctx context.Context, viewerID, courseID string) (Position, bool, error) {
	var (
		lectureID string
		updated   int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT lecture_id, updated_at FROM resume_positions WHERE viewer_id = ? AND course_id = ?`,
		viewerID, courseID,
	).Scan(&lectureID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Position{}, false, nil
	}
	if err != nil {
		return Position{}, false, fmt.Errorf("lookup resume position: %w", err)
	}
	return Position{
		ViewerID:  viewerID,
		CourseID:  courseID,
		LectureID: lectureID,
		UpdatedAt: time.UnixMilli(updated),
	}, true, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
