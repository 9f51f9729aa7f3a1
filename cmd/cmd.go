// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func idArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id", UsageText: "ID"}}
}

func idsArg() []cli.Argument {
	return []cli.Argument{&cli.StringArgs{Name: "ids", UsageText: "ID...", Min: 0, Max: -1}}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, json, csv, markdown)",
		Value:   "text",
	}
}

func watchFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Poll until the started tasks settle",
	}
}

// taskCommand handles task operations against the remote server
func taskCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "task",
		Aliases: []string{"t"},
		Usage:   "Task operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every task",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.TaskList,
			},
			{
				Name:      "status",
				Usage:     "Show the server-reported status of one task",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TaskStatus,
			},
			{
				Name:  "create",
				Usage: "Create one task",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Task name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Task url",
						Required: true,
					},
				},
				Action: r.TaskCreate,
			},
			{
				Name:  "batch-create",
				Usage: "Create tasks from \"name-url\" lines",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Read lines from a file instead of stdin",
					},
				},
				Action: r.TaskBatchCreate,
			},
			{
				Name:      "start",
				Usage:     "Start one task",
				Arguments: idArg(),
				Flags:     []cli.Flag{watchFlag()},
				Action:    r.TaskStart,
			},
			{
				Name:      "batch-start",
				Usage:     "Start the waiting tasks among the given ids",
				Arguments: idsArg(),
				Flags:     []cli.Flag{watchFlag()},
				Action:    r.TaskBatchStart,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete one task",
				Arguments: idArg(),
				Action:    r.TaskDelete,
			},
			{
				Name:      "batch-delete",
				Usage:     "Delete the given tasks",
				Arguments: idsArg(),
				Action:    r.TaskBatchDelete,
			},
			{
				Name:      "watch",
				Usage:     "Poll tasks until none is running",
				Arguments: idsArg(),
				Action:    r.TaskWatch,
			},
		},
	}
}

// historyCommand reads and clears the activity journal
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent task activity",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of entries",
				Value:   50,
			},
			&cli.StringFlag{
				Name:  "action",
				Usage: "Only show entries for one action, e.g. batch_start",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Remove every history entry",
				Action: r.HistoryClear,
			},
		},
	}
}

// setupCommand handles setup operations for configuration, database and session.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config file",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "session",
				Usage: "Store credentials from a browser request (Copy as cURL)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
				},
				Action: r.SetupSession,
			},
		},
	}
}

// devserverCommand runs the in-memory task server.
func devserverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devserver",
		Usage: "Serve the task API from memory for local testing",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on, overrides [server] port",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Number of waiting tasks to create at startup",
			},
		},
		Action: r.Devserver,
	}
}

// tuiCommand returns the top-level TUI command for interactive task management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive task board",
		Action:  r.TUI,
	}
}
