// Package cli wires configuration, storage, metrics and the engine for the
// fold command.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/fold"
	"github.com/aretw0/fold/internal/config"
	"github.com/aretw0/fold/internal/logging"
	"github.com/aretw0/fold/pkg/adapters/file"
	"github.com/aretw0/fold/pkg/adapters/memory"
	"github.com/aretw0/fold/pkg/adapters/redis"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/observability"
	"github.com/aretw0/fold/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is a fully wired fold instance.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    ports.ConfigStore
	Locker   ports.Locker
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Engine   *fold.Engine

	closers []io.Closer
}

// NewApp builds an App from cfg, logging to logOut.
func NewApp(cfg *config.Config, logOut io.Writer) (*App, error) {
	logger, err := createLogger(cfg.Logging, logOut)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger}

	store, locker, closer, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	app.Store, app.Locker = store, locker
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	engineOpts, err := app.engineOptions()
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Engine, err = fold.New(engineOpts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return app, nil
}

func (a *App) engineOptions() ([]fold.Option, error) {
	cfg := a.Config
	extent, err := domain.ParseRegionExtent(cfg.Split.Extent)
	if err != nil {
		return nil, err
	}
	mode, err := domain.ParseIndexMode(cfg.Split.IndexMode)
	if err != nil {
		return nil, err
	}

	opts := []fold.Option{
		fold.WithLogger(a.Logger),
		fold.WithStore(a.Store),
		fold.WithRegionExtent(extent),
		fold.WithIndexMode(mode),
	}
	if cfg.Split.CriticalLine != "" {
		opts = append(opts, fold.WithDefaultConfigText(cfg.Split.CriticalLine))
	}
	if cfg.Split.ScriptURL != "" {
		opts = append(opts, fold.WithScriptURL(cfg.Split.ScriptURL))
	}

	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.Metrics = observability.NewMetrics(a.Registry)
		opts = append(opts, fold.WithLifecycleHooks(a.Metrics.Hooks(a.Logger)))
	} else {
		opts = append(opts, fold.WithLifecycleHooks(debugHooks(a.Logger)))
	}
	return opts, nil
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenStore creates the configured store. The locker is nil unless the
// backend can coordinate several processes.
func OpenStore(cfg config.StoreConfig) (ports.ConfigStore, ports.Locker, io.Closer, error) {
	switch cfg.Driver {
	case config.StoreMemory, "":
		return memory.NewStore(), nil, nil, nil
	case config.StoreFile:
		return file.New(cfg.Dir), nil, nil, nil
	case config.StoreRedis:
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		return s, s.Locker(), s, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func createLogger(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(w, level, cfg.Format)
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRegionOpen: func(e *domain.RegionEvent) {
			logger.Debug("region open", "region", e.RegionID, "parent", e.ParentID, "tag", e.Tag)
		},
		OnRegionClose: func(e *domain.RegionEvent) {
			logger.Debug("region close", "region", e.RegionID, "bytes", e.Bytes)
		},
		OnDocumentDone: func(e *domain.DocumentEvent) {
			if e.Summary == nil {
				return
			}
			logger.Debug("document done", "url", e.URL, "mode", e.Mode, "regions", len(e.Summary.Regions))
		},
	}
}
