// Package logtail reads the tail of the application log for the in-app
// activity overlay.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// O(maxLines) no matter how large the file grows. A missing file returns
// nil, nil: the overlay simply shows nothing until the first line is written.
//
// Parse understands the JSON lines written by internal/logging:
//
//	{"level":"info","ts":"2026-01-02T15:04:05.000Z","msg":"progress loaded","view":"x1"}
//
// becomes an Entry with Time, Level "INFO", Message and Fields "view=x1".
// Lines that are not JSON are kept as message-only entries.
package logtail
