// Package player hands lecture media to an external video player.
package player

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ErrNoPlayer is returned when no player program is configured.
var ErrNoPlayer = errors.New("no player configured")

// Launcher starts playback of a media URL. A nil error means playback started.
type Launcher interface {
	Launch(ctx context.Context, mediaURL string) error
}

// Command launches Program with Args followed by the media URL. The process
// runs detached from the TUI and is reaped in the background.
type Command struct {
	Program string
	Args    []string
	Logger  *zap.Logger
}

var _ Launcher = (*Command)(nil)

// Launch starts the player and returns once the process is running.
func (c *Command) Launch(ctx context.Context, mediaURL string) error {
	program := strings.TrimSpace(c.Program)
	if program == "" {
		return ErrNoPlayer
	}
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return errors.New("launch player: empty media url")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := exec.LookPath(program)
	if err != nil {
		return fmt.Errorf("launch player: %w", err)
	}
	args := append(append([]string(nil), c.Args...), mediaURL)
	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch player: %w", err)
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("player started", zap.String("program", program), zap.Int("pid", cmd.Process.Pid))
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Warn("player exited", zap.String("program", program), zap.Error(err))
			return
		}
		logger.Debug("player exited", zap.String("program", program))
	}()
	return nil
}
