// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/timemachine/internal/api"
	"github.com/starford/timemachine/internal/browse"
	"github.com/starford/timemachine/internal/index"
	"github.com/starford/timemachine/internal/mcpserver"
	"github.com/starford/timemachine/internal/metrics"
	"github.com/starford/timemachine/internal/sse"
	"github.com/starford/timemachine/internal/storage"
	"github.com/starford/timemachine/internal/timemachine"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{
		version:   "dev",
		output:    os.Stdout,
		logOutput: os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// components are the pieces shared by every command.
type components struct {
	logger  *slog.Logger
	store   *storage.FS
	db      *index.DB
	svc     *timemachine.Service
	metrics *metrics.Recorder
}

func (rt *components) Close() {
	if rt.db != nil {
		_ = rt.db.Close()
	}
}

func (a *application) indexOptions() index.Options {
	cfg := a.config
	return index.Options{
		Property:   cfg.TimeMachine.Property,
		IgnoreDirs: cfg.Vault.IgnoreDirs,
		Workers:    cfg.TimeMachine.Workers,
	}
}

// open initialises logging, storage and the run service. With cached set the
// date cache is opened and synced and runs read from it; otherwise runs read
// the vault directly.
func (a *application) open(ctx context.Context, cached bool) (*components, error) {
	cfg := a.config

	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("property", cfg.TimeMachine.Property),
		slog.Any("horizons", cfg.TimeMachine.Horizons),
		slog.Int("capacity", cfg.TimeMachine.Capacity),
		slog.Bool("cached", cached),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	specs, err := cfg.TimeMachine.Specs()
	if err != nil {
		return nil, err
	}

	rt := &components{logger: logger, store: store, metrics: metrics.New()}

	var src timemachine.Source
	if cached {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		rt.db = db

		stats, err := index.Sync(ctx, db, store, a.indexOptions(), logger)
		if err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		} else {
			attrs := []any{
				slog.Int("indexed", stats.Indexed),
				slog.Int("unchanged", stats.Unchanged),
				slog.Int("removed", stats.Removed),
			}
			if total, dated, err := db.Count(); err == nil {
				attrs = append(attrs, slog.Int("notes", total), slog.Int("dated", dated))
			}
			logger.Info("initial sync finished", attrs...)
		}
		src = &timemachine.IndexSource{DB: db}
	} else {
		src = &timemachine.VaultSource{
			Store:      store,
			Property:   cfg.TimeMachine.Property,
			IgnoreDirs: cfg.Vault.IgnoreDirs,
			Workers:    cfg.TimeMachine.Workers,
			Logger:     logger,
		}
	}

	rt.svc = timemachine.NewService(src, timemachine.Config{
		Horizons: specs,
		Capacity: cfg.TimeMachine.Capacity,
	}, logger, timemachine.WithMetrics(rt.metrics))
	return rt, nil
}

func (a *application) runReport(ctx context.Context, svc *timemachine.Service) (*timemachine.Report, error) {
	if a.at.IsZero() {
		return svc.Run(ctx)
	}
	return svc.RunAt(ctx, a.at)
}

// Run starts the HTTP server, the vault watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	rt, err := app.open(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger

	broker := sse.NewBroker(cfg.TimeMachine.RefreshThrottle)
	defer broker.Close()

	handler := api.NewHandler(rt.svc, rt.store, cfg.TimeMachine.Property)
	apiRouter := api.NewRouter(handler, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health and metrics endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", rt.metrics.Handler())

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, rt.db, rt.store, rt.store.Root(), app.indexOptions(), logger, broker.PublishNoteEvent)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// Show runs the time machine once and prints the report.
func Show(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := app.open(ctx, !app.noCache)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := app.runReport(ctx, rt.svc)
	if err != nil {
		return err
	}
	if app.asJSON {
		enc := json.NewEncoder(app.output)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return report.WriteText(app.output)
}

// Browse opens the terminal browser.
func Browse(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := app.open(ctx, !app.noCache)
	if err != nil {
		return err
	}
	defer rt.Close()

	load := func(ctx context.Context) (*timemachine.Report, error) {
		if rt.db != nil {
			if _, err := index.Sync(ctx, rt.db, rt.store, app.indexOptions(), rt.logger); err != nil {
				return nil, err
			}
		}
		return app.runReport(ctx, rt.svc)
	}
	return browse.Run(load, browse.EditorOpener(rt.store.Abs))
}

// ServeMCP serves the MCP tools on stdin/stdout while the watcher keeps the
// date cache current.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := app.open(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := index.Watch(watchCtx, rt.db, rt.store, rt.store.Root(), app.indexOptions(), rt.logger, nil); err != nil {
			rt.logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	srv := mcpserver.New(rt.svc, rt.store, app.config.TimeMachine.Property, app.version)
	return srv.ServeStdio()
}
