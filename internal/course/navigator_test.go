package course

import "testing"

func TestNavigator_InitialSelection(t *testing.T) {
	var n Navigator
	c := sampleCourse()

	if _, ok := n.Current(); ok {
		t.Fatalf("Current reported a selection before any load")
	}
	if !n.SelectFirst(c) {
		t.Fatalf("SelectFirst = false, want true on empty navigator")
	}
	cur, ok := n.Current()
	if !ok || cur.ID != "L1" {
		t.Fatalf("Current = %#v, want L1", cur)
	}

	n.Select(c, c.Lectures[2])
	if n.SelectFirst(c) {
		t.Fatalf("SelectFirst overrode an existing selection")
	}
	if !n.IsSelected(c.Lectures[2]) || n.IsSelected(c.Lectures[0]) {
		t.Fatalf("IsSelected does not track the current lecture")
	}
}

func TestNavigator_SelectFirstOnEmptyCourse(t *testing.T) {
	var n Navigator
	if n.SelectFirst(Course{ID: "empty"}) {
		t.Fatalf("SelectFirst on a course without lectures returned true")
	}
	if n.Next(Course{ID: "empty"}) {
		t.Fatalf("Next on a course without lectures returned true")
	}
}

func TestNavigator_OrdinalOf(t *testing.T) {
	var n Navigator
	c := sampleCourse()
	if got := n.OrdinalOf(c, c.Lectures[1]); got != 2 {
		t.Fatalf("OrdinalOf(L2) = %d, want 2", got)
	}
	if got := n.OrdinalOf(c, Lecture{ID: "x"}); got != 0 {
		t.Fatalf("OrdinalOf(x) = %d, want 0", got)
	}
}

func TestNavigator_NextPrevClamp(t *testing.T) {
	var n Navigator
	c := sampleCourse()

	if !n.Next(c) {
		t.Fatalf("Next with no selection should select the first lecture")
	}
	if cur, _ := n.Current(); cur.ID != "L1" {
		t.Fatalf("Current = %q, want L1", cur.ID)
	}
	if n.Prev(c) {
		t.Fatalf("Prev at the first lecture moved")
	}
	n.Next(c)
	n.Next(c)
	if cur, _ := n.Current(); cur.ID != "L3" {
		t.Fatalf("Current = %q, want L3", cur.ID)
	}
	if n.Next(c) {
		t.Fatalf("Next at the last lecture moved")
	}
	n.Prev(c)
	if cur, _ := n.Current(); cur.ID != "L2" {
		t.Fatalf("Current = %q, want L2", cur.ID)
	}
}

func TestNavigator_RefreshAndReset(t *testing.T) {
	var n Navigator
	c := sampleCourse()
	n.Select(c, c.Lectures[1])

	c.Lectures[1].Title = "Types, revised"
	n.Refresh(c)
	if cur, _ := n.Current(); cur.Title != "Types, revised" {
		t.Fatalf("Refresh did not pick up the new title: %q", cur.Title)
	}

	n.Reset()
	if _, ok := n.Current(); ok {
		t.Fatalf("Reset left a selection")
	}
}
