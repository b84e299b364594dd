// Package ui provides the Lectern terminal interface.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model is the single owner of screen state;
// every network or disk operation runs as a tea.Cmd and reports back through a
// message, so Update never blocks.
//
// # Screens
//
//   - Course page: title, subtitle, creator, last update, enrollment,
//     description, lecture list with play or lock glyphs, preview title and
//     price. Anonymous viewers get a sign-in prompt instead and no detail
//     request is made.
//   - Lecture screen: the lecture list beside the current lecture, its
//     completion badge and the completion toggle. Reached with enter from the
//     course page once the viewer owns the course.
//   - Activity overlay (L): the tail of the log file, parsed with logtail.
//
// # Progress Flow
//
//  1. enter on the course page creates a progress.Synchronizer and loads it
//  2. space or c calls BeginToggle; the optimistic state renders immediately
//  3. Commit runs as a command and the authoritative refetch replaces the view
//  4. esc closes the synchronizer; replies that arrive later still carry the
//     closed synchronizer and are ignored
//
// Playing a lecture (p or enter) hands its media URL to the configured
// player. With auto-complete enabled the lecture is marked completed once
// the player has started.
//
// # Key Bindings
//
//   - j/k, g/G: Move through lectures (or scroll the activity log)
//   - enter: Continue course, or play on the lecture screen
//   - space/c: Mark as completed / Mark as incomplete
//   - p: Play lecture
//   - r: Jump to the last saved lecture
//   - a: Toggle auto-complete on play
//   - R: Reload
//   - L: Activity log, f toggles follow mode
//   - T: Cycle theme
//   - esc: Back to the course page
//   - h/?: Help
//   - q or Ctrl+C: Quit
package ui
