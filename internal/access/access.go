// Package access decides what a viewer may see and play.
//
// Two tiers: authentication gates course detail, entitlement (a purchase by
// an authenticated viewer) gates playback and completion state.
package access

import (
	"github.com/five82/lectern/internal/course"
	"github.com/five82/lectern/internal/viewer"
)

// Visibility is the detail level a viewer gets for a course page.
type Visibility int

const (
	// Preview shows the summary and lecture titles with media withheld.
	Preview Visibility = iota
	// Full shows everything.
	Full
)

func (v Visibility) String() string {
	if v == Full {
		return "full"
	}
	return "preview"
}

// Entitled reports whether v has unlocked c.
func Entitled(v viewer.Viewer, c course.Course) bool {
	return v.Authenticated() && c.Purchased
}

// CanPlay reports whether v may play l. Progress state never matters.
func CanPlay(v viewer.Viewer, c course.Course, l course.Lecture) bool {
	return Entitled(v, c) && c.Has(l.ID)
}

// CanViewDetail returns Full for authenticated viewers regardless of purchase.
func CanViewDetail(c course.Course, authenticated bool) Visibility {
	if authenticated {
		return Full
	}
	return Preview
}

// Redact strips media references from d unless vis is Full.
func Redact(d course.Detail, vis Visibility) course.Detail {
	if vis == Full {
		return d
	}
	lectures := make([]course.Lecture, len(d.Course.Lectures))
	for i, l := range d.Course.Lectures {
		l.VideoURL = ""
		lectures[i] = l
	}
	d.Course.Lectures = lectures
	return d
}
