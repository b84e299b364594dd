// Package app is the composition root for Lectern.
//
// # Overview
//
// Run wires configuration, logging, the viewer session, the API client and
// the local stores into the UI, then blocks until the user quits.
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read and validate config.toml
//	       ├─────> logging.New()        File logger (the terminal belongs to the TUI)
//	       ├─────> viewer.Save/Load()   Session token, LECTERN_TOKEN wins
//	       ├─────> api.NewClient()      Course progress and detail endpoints
//	       ├─────> resume.Open()        Last lecture per course (optional)
//	       ├─────> prefs.Load()         Theme and auto-complete
//	       └─────> ui.Run()             Start TUI (blocks)
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Missing course id
//   - Invalid configuration or log file that cannot be opened
//   - Session token that cannot be stored
//
// Recoverable errors (logged, startup continues):
//   - Unreadable session file: the viewer starts signed out
//   - Resume database that cannot be opened: positions are not saved
//   - Malformed prefs file: defaults are used
//
// Nothing touches the network before the UI starts; the course page request
// is the first call, and only for signed-in viewers.
package app
