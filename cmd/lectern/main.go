package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/five82/lectern/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("lectern", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path (default ~/.config/lectern/config.toml)")
	prefsPath := fs.String("prefs", "", "preferences file path (default ~/.config/lectern/prefs.toml)")
	token := fs.String("token", "", "store this session token, then start")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: lectern [flags] COURSE_ID\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Token:      *token,
		CourseID:   fs.Arg(0),
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "lectern: %v\n", err)
		return 1
	}
	return 0
}
