package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vango-dev/cellgraph/internal/config"
	"github.com/vango-dev/cellgraph/internal/logging"
	"github.com/vango-dev/cellgraph/internal/todos"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
	"github.com/vango-dev/cellgraph/pkg/persist"
)

// session is one open todo list: config, store and the model on a fresh
// runtime.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  persist.Store
	rt     *cellgraph.Runtime
	model  *todos.Model
}

// loadConfig reads the config file and applies flag overrides.
func (g *globals) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(g.configPath)
	if err != nil {
		return nil, err
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if g.driver != "" {
		cfg.Store.Driver = g.driver
		if g.driver == persist.DriverSQLite && cfg.Store.SQLitePath == "" {
			cfg.Store.SQLitePath = config.DefaultSQLitePath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open loads the config and the todo list. extra options are applied to the
// runtime after the configured ones.
func (g *globals) open(cmd *cobra.Command, extra ...cellgraph.Option) (*session, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return openSession(cmd.Context(), cfg, logger, extra...)
}

func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...cellgraph.Option) (*session, error) {
	store, err := persist.Open(ctx, cfg.PersistConfig())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts := append(cfg.RuntimeOptions(), cellgraph.WithLogger(logger))
	rt := cellgraph.New(append(opts, extra...)...)

	model, err := todos.New(rt,
		todos.WithStore(store),
		todos.WithStorageKey(cfg.Store.Key),
		todos.WithLogger(logger),
		todos.WithContext(ctx),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load todos: %w", err)
	}
	logger.Debug("todos: session opened",
		"driver", cfg.Store.Driver,
		"key", cfg.Store.Key,
		"todos", model.TodosCount(nil))

	return &session{
		cfg:    cfg,
		logger: logger,
		store:  store,
		rt:     rt,
		model:  model,
	}, nil
}

// Close stops saving and releases the store.
func (s *session) Close() error {
	s.model.Close()
	return s.store.Close()
}

// update runs fn on the model and reports a failed save.
func (s *session) update(fn func(m *todos.Model) error) error {
	before := s.model.Binding().Failures()
	if err := fn(s.model); err != nil {
		return err
	}
	if s.model.Binding().Failures() > before {
		return fmt.Errorf("save to %s store failed", s.cfg.Store.Driver)
	}
	return nil
}
