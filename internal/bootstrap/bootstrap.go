// Package bootstrap wires configuration, logging, the dictionary, its data
// store and the hook executor into a running application
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/entitydict/internal/config"
	"github.com/conduit-lang/entitydict/internal/datastore"
	"github.com/conduit-lang/entitydict/internal/datastore/kvstore"
	"github.com/conduit-lang/entitydict/internal/datastore/sqlstore"
	"github.com/conduit-lang/entitydict/internal/dictionary"
	"github.com/conduit-lang/entitydict/internal/hooks"
	"github.com/conduit-lang/entitydict/internal/model"
)

// ErrUnknownDataStore is returned for an unsupported datastore kind
var ErrUnknownDataStore = errors.New("unknown datastore kind")

// Options configure Build. Zero values fall back to defaults.
type Options struct {
	Config *config.Config
	Logger *zap.Logger

	// Catalog defaults to model.Default
	Catalog *model.Catalog
}

// App is a populated dictionary with the services around it
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Dictionary *dictionary.Dictionary
	Store      datastore.DataStore
	Hooks      *hooks.Executor

	queue  *hooks.AsyncQueue
	closer func() error
}

// Build creates the dictionary, registers checks and populates it from the
// configured data store. A check alias declared by two types is fatal.
func Build(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load("")
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog := opts.Catalog
	if catalog == nil {
		catalog = model.Default
	}

	d := dictionary.New(dictionary.Config{
		Logger:     logger.Named("dictionary"),
		Catalog:    catalog,
		CheckScope: cfg.Scan.Checks,
	})
	if err := d.ScanForChecks(); err != nil {
		return nil, err
	}

	store, closer, err := openStore(ctx, cfg, logger.Named("datastore"))
	if err != nil {
		return nil, err
	}
	if err := store.PopulateEntityDictionary(ctx, d); err != nil {
		if !onlyBindErrors(err) {
			closer()
			return nil, err
		}
		// single types failing to bind leave the rest usable
		logger.Warn("some types failed to bind", zap.Error(err))
	}

	queue := hooks.NewAsyncQueue(cfg.Hooks.AsyncWorkers, logger.Named("hooks"))
	queue.Start()

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Dictionary: d,
		Store:      store,
		Hooks:      hooks.NewExecutor(d, queue, logger.Named("hooks")),
		queue:      queue,
		closer:     closer,
	}

	stats := d.Stats()
	logger.Info("dictionary ready",
		zap.String("store", store.Name()),
		zap.Int("bindings", stats.Bindings),
		zap.Int("check_aliases", stats.CheckAliases),
	)
	return app, nil
}

// onlyBindErrors reports whether every error joined into err is a failure
// to bind a single type
func onlyBindErrors(err error) bool {
	switch e := err.(type) {
	case *dictionary.BindError:
		return true
	case interface{ Unwrap() []error }:
		parts := e.Unwrap()
		for _, part := range parts {
			if !onlyBindErrors(part) {
				return false
			}
		}
		return len(parts) > 0
	case interface{ Unwrap() error }:
		return onlyBindErrors(e.Unwrap())
	default:
		return false
	}
}

// Close drains queued hooks and releases the data store
func (a *App) Close() error {
	a.queue.Shutdown()
	return a.closer()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (datastore.DataStore, func() error, error) {
	scope := cfg.Scan.Models
	noop := func() error { return nil }

	switch cfg.DataStore.Kind {
	case config.KindMemory, "":
		return &datastore.Memory{Scope: scope, Logger: logger}, noop, nil
	case config.KindSQL:
		store, err := sqlstore.Open(ctx, cfg.DataStore.Driver, cfg.DataStore.DSN, scope, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.KindRedis:
		store, err := kvstore.Dial(ctx, cfg.DataStore.RedisAddr, cfg.DataStore.Namespace, scope, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownDataStore, cfg.DataStore.Kind)
	}
}
