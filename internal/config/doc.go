// Package config loads the Lectern client configuration.
//
// # Discovery
//
// Load reads the given path, or ~/.config/lectern/config.toml when the path is
// empty. A missing file is not an error: Default is returned so the client
// works out of the box against a local development backend.
//
// # TOML Format
//
//	api_url = "https://learn.example.com/api/v1"
//	session_file = "~/.config/lectern/session.env"
//	log_file = "~/.local/state/lectern/lectern.log"
//	log_level = "info"                 # debug, info, warn, error
//	resume_db = "~/.local/share/lectern/resume.db"
//	player = "mpv"
//	player_args = ["--force-window=yes"]
//	on_toggle_failure = "revert"       # revert or keep
//	request_timeout_seconds = 10
//
// Every key is optional. Values are trimmed, paths get ~ expansion and
// blank values fall back to defaults.
//
// # Validation
//
// After merging, the result is checked with go-playground/validator. Errors
// name the TOML key, for example:
//
//	invalid config: on_toggle_failure must be one of [revert keep]
package config
