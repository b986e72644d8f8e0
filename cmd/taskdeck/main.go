// Package main is the entry point for the taskdeck CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"taskdeck/internal/backend/httpapi"
	"taskdeck/internal/cli"
	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/credstore"
	"taskdeck/internal/tracker"
)

func main() {
	// Cancel on interrupt so in-flight requests and the devserver stop.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*tracker.Tracker, error) {
		store, err := credstore.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		client := httpapi.New(httpapi.Options{
			BaseURL: cfg.APIURL,
			Timeout: cfg.Timeout,
			Logger:  log,
		})
		return tracker.New(client, store, log), nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
