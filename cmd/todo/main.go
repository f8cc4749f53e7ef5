package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"donelog/internal/config"
	"donelog/internal/logging"
	"donelog/internal/output"
	"donelog/internal/storage"
	"donelog/internal/storage/kv"
	"donelog/internal/storage/postgres"
	"donelog/internal/store"
	"donelog/internal/ui"
)

var (
	stdout     io.Writer = os.Stdout
	configPath string
	jsonOutput bool
	yamlOutput bool
	formatter  output.Formatter = output.NewHumanFormatter(time.Now())
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printOutput(formatter.FormatError(err))
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "todo",
		Short:         "Track tasks and reflect on what you finish",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if jsonOutput && yamlOutput {
				return errors.New("--json and --yaml are mutually exclusive")
			}
			name := output.FormatHuman
			switch {
			case jsonOutput:
				name = output.FormatJSON
			case yamlOutput:
				name = output.FormatYAML
			}
			f, err := output.New(name, time.Now())
			if err != nil {
				return err
			}
			formatter = f
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()
			return ui.Run(cmd.Context(), a.store, a.cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $"+config.EnvConfig+" or the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "Output in YAML format")

	rootCmd.AddCommand(
		addCmd(),
		editCmd(),
		listCmd(),
		doneCmd(),
		undoneCmd(),
		rmCmd(),
		statsCmd(),
		trendCmd(),
		timelineCmd(),
	)
	return rootCmd
}

// app holds everything a command needs once config and storage are open.
type app struct {
	cfg     config.Config
	store   *store.Store
	logger  *log.Logger
	closers []func() error
}

// openApp loads config, builds the logger and opens the configured backend.
// The TUI logs to a file because it owns the terminal.
func openApp(ctx context.Context, tui bool) (*app, error) {
	path := configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &app{cfg: cfg}
	if tui {
		logger, closeLog, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logger = logger
		a.closers = append(a.closers, closeLog)
	} else {
		a.logger = logging.New(os.Stderr, cfg.LogLevel)
	}

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	if closeBackend != nil {
		a.closers = append(a.closers, closeBackend)
	}

	a.store, err = store.Open(ctx, backend, store.WithLogger(a.logger))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.logger.Debug("store ready", "backend", cfg.Backend)
	return a, nil
}

func openBackend(ctx context.Context, cfg config.Config) (store.Backend, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return store.Rows(db), db.Close, nil
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return store.Rows(db), db.Close, nil
	default:
		db, err := kv.Open(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store.Snapshot(db), nil, nil
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}

func printOutput(s string) {
	io.WriteString(stdout, s)
}
