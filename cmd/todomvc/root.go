package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"todomvc/app"
	"todomvc/config"
	"todomvc/logging"
	"todomvc/model"
	"todomvc/store"
	"todomvc/tui"
)

type rootOptions struct {
	configPath string
	storage    string
	dir        string
	key        string
	filter     string
	logLevel   string
	logFile    string
	watch      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "todomvc",
		Short: "A terminal TodoMVC",
		Long: `todomvc keeps a single todo list and saves every change immediately.

Run without a subcommand to open the interactive interface. Subcommands edit
the same list non-interactively.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/todomvc/config.toml)")
	flags.StringVar(&opts.storage, "storage", "", "storage backend: file, sqlite or memory")
	flags.StringVar(&opts.dir, "dir", "", "data directory")
	flags.StringVar(&opts.key, "key", "", "storage key")
	flags.StringVarP(&opts.filter, "filter", "f", "", "filter: All, Active or Completed")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	flags.BoolVar(&opts.watch, "watch", true, "reload when the file backend changes on disk")

	root.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newEditCmd(opts),
		newToggleCmd(opts),
		newRemoveCmd(opts),
		newToggleAllCmd(opts),
		newClearCompletedCmd(opts),
		newRestoreCmd(opts),
	)
	return root
}

// session is everything a command needs once configuration is resolved.
type session struct {
	cfg     *config.Config
	logger  *log.Logger
	store   *app.TodoStore
	file    *store.FileAdapter
	closers []io.Closer
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// resolveConfig layers flags that were set explicitly over the loaded config.
func resolveConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("storage") {
		cfg.Storage.Backend = opts.storage
	}
	if flags.Changed("dir") {
		cfg.Storage.Dir = opts.dir
	}
	if flags.Changed("key") {
		cfg.Storage.Key = opts.key
	}
	if flags.Changed("filter") {
		cfg.Filter = opts.filter
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	if flags.Changed("watch") {
		cfg.Storage.Watch = opts.watch
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession loads config, builds the logger and hydrates the store.
// logOut receives logs when no log file is configured.
func openSession(cmd *cobra.Command, opts *rootOptions, logOut io.Writer) (*session, error) {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}, logOut)
	if err != nil {
		return nil, err
	}
	sess := &session{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	var adapter store.Adapter
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath(), cfg.Storage.Key)
		if err != nil {
			_ = sess.Close()
			return nil, err
		}
		sess.closers = append(sess.closers, db)
		adapter = db
	case config.BackendMemory:
		adapter = store.NewMemoryAdapter(nil)
	default:
		sess.file = store.NewFileAdapter(cfg.Storage.Dir, cfg.Storage.Key, cfg.Storage.Backups)
		adapter = sess.file
	}
	logger.Debug("storage opened", "backend", cfg.Storage.Backend, "key", cfg.Storage.Key)

	sess.store = app.NewTodoStore(adapter,
		app.WithLogger(logger),
		app.WithFilter(model.Filter(cfg.Filter)),
	)
	return sess, nil
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	sess, err := openSession(cmd, opts, io.Discard)
	if err != nil {
		return err
	}
	defer sess.Close()

	m := tui.NewModel(sess.store, "")
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	if sess.file != nil && sess.cfg.Storage.Watch {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		w, err := store.NewWatcher(sess.file.Path(), func() {
			program.Send(tui.StorageChangedMsg{})
		}, sess.logger)
		if err != nil {
			sess.logger.Warn("file watching disabled", "err", err)
		} else {
			go func() {
				if err := w.Run(ctx); err != nil {
					sess.logger.Warn("file watcher stopped", "err", err)
				}
			}()
		}
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
