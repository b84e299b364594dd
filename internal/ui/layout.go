package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the lecture panel stacks
	// under the list instead of sitting beside it.
	LayoutCompactWidth = 100

	// LayoutListWidth is the lecture list width in the side-by-side layout.
	LayoutListWidth = 44
)

// Activity log limits.
const (
	// LogTailLines is the number of log lines read for the activity overlay.
	LogTailLines = 500
)

// Timing constants.
const (
	// NoticeTTL is how long a notice stays in the status line.
	NoticeTTL = 4 * time.Second

	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
