package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	foldhttp "github.com/aretw0/fold/pkg/adapters/http"
	"github.com/aretw0/fold/pkg/adapters/rules"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer builds the site server described by the app config.
func NewHTTPServer(app *App) *http.Server {
	cfg := app.Config
	opts := foldhttp.Options{
		Site:              os.DirFS(cfg.Site.Root),
		Index:             cfg.Site.Index,
		TwoChunk:          cfg.Server.TwoChunk,
		BlockedUserAgents: cfg.Server.BlockedUserAgents,
		Metrics:           app.Metrics,
		Logger:            app.Logger,
	}
	if app.Registry != nil {
		opts.MetricsPath = cfg.Metrics.Path
		opts.MetricsHandler = promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})
	}
	return &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           foldhttp.NewHandler(app.Engine, opts),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
}

// NewSyncer builds a rules syncer for the app store.
func NewSyncer(app *App, extra ...rules.Option) *rules.Syncer {
	opts := []rules.Option{rules.WithLogger(app.Logger)}
	if app.Locker != nil {
		opts = append(opts, rules.WithLocker(app.Locker, 10*time.Second))
	}
	return rules.NewSyncer(app.Store, append(opts, extra...)...)
}

// RunServe serves until ctx is done, then shuts down gracefully.
func RunServe(ctx context.Context, app *App) error {
	cfg := app.Config
	srv := NewHTTPServer(app)

	if cfg.Rules.File != "" {
		syncer := NewSyncer(app)
		if cfg.Rules.Watch {
			go func() {
				if err := syncer.Watch(ctx, cfg.Rules.File, cfg.Rules.Debounce); err != nil {
					app.Logger.Error("rules watcher stopped", "err", err)
				}
			}()
		} else if _, err := syncer.SyncFile(ctx, cfg.Rules.File); err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("fold server listening", "address", srv.Addr, "site", cfg.Site.Root, "two_chunk", cfg.Server.TwoChunk)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		app.Logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		return nil
	}
}
