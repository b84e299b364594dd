package progress

import (
	"sort"
	"strings"
	"sync"
)

// Record is the completion state of one lecture. Absence means not viewed.
type Record struct {
	LectureID string
	Viewed    bool
}

// Store holds the progress records of a single course.
type Store struct {
	mu            sync.RWMutex
	scope         map[string]struct{}
	viewed        map[string]bool
	authoritative map[string]bool
}

// NewStore returns a store scoped to the given lecture ids.
func NewStore(lectureIDs []string) *Store {
	s := &Store{}
	s.SetScope(lectureIDs)
	return s
}

// SetScope limits the store to lectureIDs and drops records outside it.
// A nil scope accepts any id; an empty one accepts none.
func (s *Store) SetScope(lectureIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lectureIDs == nil {
		s.scope = nil
	} else {
		s.scope = make(map[string]struct{}, len(lectureIDs))
		for _, id := range lectureIDs {
			s.scope[id] = struct{}{}
		}
	}
	for id := range s.viewed {
		if !s.inScopeLocked(id) {
			delete(s.viewed, id)
		}
	}
	for id := range s.authoritative {
		if !s.inScopeLocked(id) {
			delete(s.authoritative, id)
		}
	}
}

// Get reports whether the lecture is viewed.
func (s *Store) Get(lectureID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewed[lectureID]
}

// SetViewed upserts a single record. Ids outside the scope are ignored.
func (s *Store) SetViewed(lectureID string, viewed bool) {
	lectureID = strings.TrimSpace(lectureID)
	if lectureID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inScopeLocked(lectureID) {
		return
	}
	if s.viewed == nil {
		s.viewed = make(map[string]bool)
	}
	if viewed {
		s.viewed[lectureID] = true
	} else {
		delete(s.viewed, lectureID)
	}
}

// ReplaceAll overwrites the whole set with an authoritative snapshot.
// Duplicate records for one lecture count as viewed when any of them is.
func (s *Store) ReplaceAll(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]bool, len(records))
	for _, r := range records {
		id := strings.TrimSpace(r.LectureID)
		if id == "" || !s.inScopeLocked(id) || !r.Viewed {
			continue
		}
		next[id] = true
	}
	s.viewed = next
	s.authoritative = make(map[string]bool, len(next))
	for id := range next {
		s.authoritative[id] = true
	}
}

// Authoritative returns the viewed flag from the last ReplaceAll.
func (s *Store) Authoritative(lectureID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authoritative[lectureID]
}

// Revert restores the lecture to its authoritative value and returns it.
func (s *Store) Revert(lectureID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.authoritative[lectureID]
	if value {
		if s.viewed == nil {
			s.viewed = make(map[string]bool)
		}
		s.viewed[lectureID] = true
	} else {
		delete(s.viewed, lectureID)
	}
	return value
}

// Records returns the viewed records sorted by lecture id.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.viewed) == 0 {
		return nil
	}
	out := make([]Record, 0, len(s.viewed))
	for id := range s.viewed {
		out = append(out, Record{LectureID: id, Viewed: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LectureID < out[j].LectureID })
	return out
}

// Count returns how many lectures are viewed.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.viewed)
}

func (s *Store) inScopeLocked(id string) bool {
	if s.scope == nil {
		return true
	}
	_, ok := s.scope[id]
	return ok
}
