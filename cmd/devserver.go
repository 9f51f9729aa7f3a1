package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/server"
	"github.com/desertthunder/taskdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// Devserver serves the in-memory task server until interrupted.
func (r *Runner) Devserver(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	srv := server.NewTaskServer(server.TaskServerOpts{
		Token:   cfg.Token,
		RunTime: cfg.RunTime(),
		Logger:  shared.WithLogger(r.logger, "component", "devserver"),
	})

	if n := cmd.Int("seed"); n > 0 {
		seed := make([]models.NewTask, n)
		for i := range seed {
			seed[i] = models.NewTask{
				Name: fmt.Sprintf("task-%d", i+1),
				URL:  fmt.Sprintf("https://example.com/jobs/%d", i+1),
			}
		}
		r.logger.Info("seeded tasks", "task_ids", shared.FormatIDs(srv.Seed(seed...)))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.Addr())
}
