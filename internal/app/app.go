package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/lectern/internal/access"
	"github.com/five82/lectern/internal/api"
	"github.com/five82/lectern/internal/config"
	"github.com/five82/lectern/internal/logging"
	"github.com/five82/lectern/internal/player"
	"github.com/five82/lectern/internal/prefs"
	"github.com/five82/lectern/internal/progress"
	"github.com/five82/lectern/internal/resume"
	"github.com/five82/lectern/internal/ui"
	"github.com/five82/lectern/internal/viewer"
)

// ErrNoCourse is returned when Run is called without a course id.
var ErrNoCourse = errors.New("course id is required")

// Options configure the Lectern application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/lectern/prefs.toml
	Token      string // stored in the session file before start when set
	CourseID   string
}

// Run boots the Lectern TUI for one course until the user quits.
func Run(ctx context.Context, opts Options) error {
	uiOpts, cleanup, err := build(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	uiOpts.Logger.Info("lectern starting",
		zap.String("course", uiOpts.CourseID),
		zap.Bool("authenticated", uiOpts.Viewer.Authenticated()),
	)
	return ui.Run(uiOpts)
}

// build loads configuration and wires every dependency of the UI. The
// returned cleanup closes the resume database and the log file.
func build(ctx context.Context, opts Options) (ui.Options, func(), error) {
	courseID := strings.TrimSpace(opts.CourseID)
	if courseID == "" {
		return ui.Options{}, nil, ErrNoCourse
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return ui.Options{}, nil, fmt.Errorf("load config: %w", err)
	}
	policy, err := progress.ParseFailurePolicy(cfg.OnToggleFailure)
	if err != nil {
		return ui.Options{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Config{FilePath: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return ui.Options{}, nil, fmt.Errorf("init logging: %w", err)
	}

	if token := strings.TrimSpace(opts.Token); token != "" {
		if err := viewer.Save(cfg.SessionFile, token); err != nil {
			_ = closeLog()
			return ui.Options{}, nil, fmt.Errorf("store token: %w", err)
		}
	}
	v, err := viewer.Load(cfg.SessionFile)
	if err != nil {
		logger.Warn("session unreadable, continuing signed out", zap.Error(err))
		v = viewer.Anonymous()
	}

	client, err := api.NewClient(cfg.APIURL, v.Token, cfg.RequestTimeout())
	if err != nil {
		_ = closeLog()
		return ui.Options{}, nil, fmt.Errorf("init api client: %w", err)
	}

	var store *resume.Store
	if cfg.ResumeDB != "" {
		store, err = resume.Open(ctx, cfg.ResumeDB)
		if err != nil {
			logger.Warn("resume positions disabled", zap.String("path", cfg.ResumeDB), zap.Error(err))
			store = nil
		}
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	uiOpts := ui.Options{
		Context:   ctx,
		CourseID:  courseID,
		Viewer:    v,
		Gate:      access.NewGate(client, logger),
		Progress:  client,
		Policy:    policy,
		Launcher:  &player.Command{Program: cfg.Player, Args: cfg.PlayerArgs, Logger: logger},
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		LogPath:   cfg.LogFile,
		Logger:    logger,
	}
	// A nil *resume.Store must not become a non-nil interface.
	if store != nil {
		uiOpts.Resume = store
	}

	cleanup := func() {
		if store != nil {
			if err := store.Close(); err != nil {
				logger.Warn("close resume store", zap.Error(err))
			}
		}
		_ = closeLog()
	}
	return uiOpts, cleanup, nil
}
