// Package main provides the courseai command line: an interactive or
// one-shot front end over the course-grade query service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/garyellow/courseai-go/internal/app"
	"github.com/garyellow/courseai-go/internal/config"
	"github.com/garyellow/courseai-go/internal/query"
	"github.com/garyellow/courseai-go/internal/snapshot"
)

// backend is what the commands need from the wired application.
type backend interface {
	Config() *config.Config
	Service() *query.Service
	Snapshots() *snapshot.Manager
	Close(ctx context.Context) error
}

type openFunc func(ctx context.Context, opts app.Options) (backend, error)

func openApplication(ctx context.Context, opts app.Options) (backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, err := app.Initialize(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(openApplication).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
