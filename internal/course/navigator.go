package course

// Navigator tracks the current lecture of a course view.
// Selection is never access gated; playback is. It is not safe for
// concurrent use, owners guard it.
type Navigator struct {
	current  Lecture
	selected bool
}

// Select makes l the current lecture.
func (n *Navigator) Select(c Course, l Lecture) {
	n.current = l
	n.selected = true
}

// SelectFirst selects the first lecture when nothing is selected yet.
// It reports whether the selection changed.
func (n *Navigator) SelectFirst(c Course) bool {
	if n.selected || len(c.Lectures) == 0 {
		return false
	}
	n.Select(c, c.Lectures[0])
	return true
}

// Current returns the selected lecture.
func (n *Navigator) Current() (Lecture, bool) {
	return n.current, n.selected
}

// IsSelected reports whether l is the current lecture.
func (n *Navigator) IsSelected(l Lecture) bool {
	return n.selected && n.current.ID == l.ID
}

// OrdinalOf returns the 1-based position of l in c, or 0 when absent.
func (n *Navigator) OrdinalOf(c Course, l Lecture) int {
	return c.Ordinal(l.ID)
}

// Next selects the lecture after the current one. It stays put at the end.
func (n *Navigator) Next(c Course) bool {
	return n.step(c, 1)
}

// Prev selects the lecture before the current one. It stays put at the start.
func (n *Navigator) Prev(c Course) bool {
	return n.step(c, -1)
}

func (n *Navigator) step(c Course, delta int) bool {
	if len(c.Lectures) == 0 {
		return false
	}
	if !n.selected {
		return n.SelectFirst(c)
	}
	idx := c.IndexOf(n.current.ID)
	if idx < 0 {
		return false
	}
	target := idx + delta
	if target < 0 || target >= len(c.Lectures) {
		return false
	}
	n.Select(c, c.Lectures[target])
	return true
}

// Refresh re-reads the current lecture from c after the lecture list was
// reloaded, so title and media changes show up. A lecture that disappeared
// stays selected by value.
func (n *Navigator) Refresh(c Course) {
	if !n.selected {
		return
	}
	if l, ok := c.Lecture(n.current.ID); ok {
		n.current = l
	}
}

// Reset clears the selection.
func (n *Navigator) Reset() {
	n.current = Lecture{}
	n.selected = false
}
