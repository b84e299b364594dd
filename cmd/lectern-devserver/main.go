package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/five82/lectern/internal/devserver"
	"github.com/five82/lectern/internal/logging"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("lectern-devserver", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:8080", "listen address")
	fixtures := fs.String("fixtures", "", "TOML fixtures file (default: built-in sample courses)")
	secret := fs.String("secret", envOr("LECTERN_DEV_SECRET", "dev-secret"), "HMAC secret for session tokens")
	ttl := fs.Duration("token-ttl", 24*time.Hour, "lifetime of issued tokens")
	printToken := fs.String("print-token", "", "print a session token for USER and exit")
	failUpdates := fs.Bool("fail-updates", false, "answer every progress update with 500")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lectern-devserver: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	fx, err := devserver.LoadFixtures(*fixtures)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lectern-devserver: %v\n", err)
		return 1
	}
	srv, err := devserver.New(fx, devserver.Options{
		Secret:      *secret,
		TokenTTL:    *ttl,
		FailUpdates: *failUpdates,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "lectern-devserver: %v\n", err)
		return 1
	}

	if *printToken != "" {
		token, err := srv.Issuer().Sign(*printToken, *printToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lectern-devserver: %v\n", err)
			return 1
		}
		fmt.Println(token)
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(*addr) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("devserver stopped", zap.Error(err))
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return 1
	}
	logger.Info("devserver stopped")
	return 0
}

func newLogger(level string) (*zap.Logger, error) {
	lv, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lv)
	return cfg.Build()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
