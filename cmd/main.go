package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/taskdeck/internal/shared"
	"github.com/desertthunder/taskdeck/internal/tasks"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, tasks.ErrAborted):
			logger.Info("aborted")
			os.Exit(0)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
