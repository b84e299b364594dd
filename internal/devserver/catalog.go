package devserver

import (
	"sort"
	"sync"

	"github.com/five82/lectern/internal/progress"
)

// catalog is the in-memory backend state.
type catalog struct {
	mu        sync.RWMutex
	courses   map[string]CourseFixture
	purchases map[string]map[string]bool
	// progress is keyed by user, then course.
	progress map[string]map[string]*progress.Store
}

func newCatalog(fx Fixtures) *catalog {
	c := &catalog{
		courses:   make(map[string]CourseFixture, len(fx.Courses)),
		purchases: make(map[string]map[string]bool),
		progress:  make(map[string]map[string]*progress.Store),
	}
	for _, course := range fx.Courses {
		c.courses[course.ID] = course
	}
	for _, p := range fx.Purchases {
		c.purchase(p.User, p.Course)
	}
	for _, p := range fx.Progress {
		c.setViewed(p.User, p.Course, p.Lecture, true)
	}
	return c
}

func (c *catalog) course(id string) (CourseFixture, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	course, ok := c.courses[id]
	return course, ok
}

func (c *catalog) purchase(user, courseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.purchases[user] == nil {
		c.purchases[user] = make(map[string]bool)
	}
	c.purchases[user][courseID] = true
}

func (c *catalog) purchased(user, courseID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.purchases[user][courseID]
}

// enrolled returns the users that bought courseID, sorted.
func (c *catalog) enrolled(courseID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var users []string
	for user, courses := range c.purchases {
		if courses[courseID] {
			users = append(users, user)
		}
	}
	sort.Strings(users)
	return users
}

func (c *catalog) setViewed(user, courseID, lectureID string, viewed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.progress[user] == nil {
		c.progress[user] = make(map[string]*progress.Store)
	}
	store := c.progress[user][courseID]
	if store == nil {
		store = progress.NewStore(c.lectureIDsLocked(courseID))
		c.progress[user][courseID] = store
	}
	store.SetViewed(lectureID, viewed)
}

// viewed returns the viewed lecture ids in course order.
func (c *catalog) viewed(user, courseID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	store := c.progress[user][courseID]
	if store == nil {
		return nil
	}
	set := make(map[string]bool)
	for _, r := range store.Records() {
		set[r.LectureID] = r.Viewed
	}
	var ids []string
	for _, l := range c.courses[courseID].Lectures {
		if set[l.ID] {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func (c *catalog) lectureIDsLocked(courseID string) []string {
	lectures := c.courses[courseID].Lectures
	ids := make([]string, 0, len(lectures))
	for _, l := range lectures {
		ids = append(ids, l.ID)
	}
	return ids
}
