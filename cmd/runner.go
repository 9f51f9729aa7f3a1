package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskdeck/internal/repositories"
	"github.com/desertthunder/taskdeck/internal/services"
	"github.com/desertthunder/taskdeck/internal/shared"
	"github.com/desertthunder/taskdeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        tasks.TaskAPI
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	yes        bool
	journal    *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        tasks.TaskAPI // Built from the [api] config section when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader // Confirmation answers and batch-create text
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "taskdeck",
		Usage:   "Start, watch and manage tasks on a remote task server",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Answer yes to every confirmation",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error), overrides [log] level",
			},
		},
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		taskCommand, historyCommand, setupCommand, devserverCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config and applies the global flags.
//
// A missing file is only an error when --config was given explicitly.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") {
		r.configPath = cmd.String("config")
	}

	config, err := shared.LoadConfig(r.configPath)
	switch {
	case err == nil:
		r.config = config
	case errors.Is(err, shared.ErrMissingConfig) && !cmd.IsSet("config"):
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	default:
		return ctx, err
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	ll, err := shared.ParseLevel(level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, ll)

	r.yes = r.yes || cmd.Bool("yes")
	if r.api == nil {
		r.api = services.NewTaskServiceFromConfig(r.config.API, r.httpClient)
	}
	return ctx, nil
}

// After releases the journal if a command opened it.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.journal == nil {
		return nil
	}
	err := r.journal.Close()
	r.journal = nil
	return err
}

// SetLogger replaces the runner's logger, e.g. with a file logger for the TUI.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// openJournal returns the notice repository, opening and migrating the database on first use.
func (r *Runner) openJournal() (*repositories.NoticeRepository, error) {
	if r.journal == nil {
		db, err := shared.OpenJournal(r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		r.journal = db
	}
	return repositories.NewNoticeRepository(r.journal), nil
}

// newEngine builds an engine over the runner's API. The journal is attached when enabled;
// failing to open it only costs the history.
func (r *Runner) newEngine(presenter tasks.Presenter) *tasks.Engine {
	opts := tasks.Options{
		Interval:     r.config.Polling.Interval(),
		SkipInFlight: r.config.Polling.SkipInFlight,
		PageSize:     r.config.API.PageSize,
		Logger:       r.logger,
	}

	if r.config.Journal.Enabled {
		if repo, err := r.openJournal(); err != nil {
			r.logger.Warn("journal disabled", "error", err)
		} else {
			opts.Recorder = repositories.NewNoticeRecorder(repo)
		}
	}
	return tasks.NewEngine(r.api, presenter, opts)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
