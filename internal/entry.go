// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
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

	"github.com/zrl37/crystallize/internal/api"
	"github.com/zrl37/crystallize/internal/chat"
	"github.com/zrl37/crystallize/internal/chatsync"
	"github.com/zrl37/crystallize/internal/export"
	"github.com/zrl37/crystallize/internal/index"
	"github.com/zrl37/crystallize/internal/mcpserver"
	"github.com/zrl37/crystallize/internal/merge"
	"github.com/zrl37/crystallize/internal/notebook"
	"github.com/zrl37/crystallize/internal/noteservice"
	"github.com/zrl37/crystallize/internal/presets"
	"github.com/zrl37/crystallize/internal/provider"
	"github.com/zrl37/crystallize/internal/selection"
	"github.com/zrl37/crystallize/internal/sse"
	"github.com/zrl37/crystallize/internal/storage"
	"github.com/zrl37/crystallize/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stdout
		if app.mcp {
			out = os.Stderr
		}
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("index_dsn", cfg.Index.DSN),
		slog.String("provider", cfg.Provider.Kind),
		slog.String("export_dir", cfg.Export.Dir),
		slog.Bool("mcp", app.mcp),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st := store.New()

	if cfg.Presets.Path != "" {
		if _, err := presets.Apply(cfg.Presets.Path, st); err != nil {
			logger.Warn("presets not applied", slog.String("error", err.Error()))
		}
	}

	prov, err := provider.New(ctx, cfg.Provider.Config)
	if err != nil {
		return fmt.Errorf("init provider: %w", err)
	}

	sink, err := storage.NewFS(cfg.Export.Dir)
	if err != nil {
		return fmt.Errorf("init export sink: %w", err)
	}

	// Initialize SQLite index and fill it from the seeded notes.
	db, err := index.Open(cfg.Index.DSN)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, st, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.Index.SearchThrottle)
	defer broker.Close()

	indexer := index.NewIndexer(db, st, logger, broker.PublishIndexEvent)
	indexer.SetDebounce(cfg.Index.Debounce)

	st.Subscribe(func(ev store.Event) {
		indexer.Observe(ev)
		broker.PublishChange(string(ev.Entity), ev.Kind, ev.ID)
	})

	chatSvc := chat.New(st, prov, chat.Options{
		HistoryLimit: cfg.Chat.HistoryLimit,
		Logger:       logger,
		OnTyping: func(ev chat.TypingEvent) {
			broker.PublishTyping(ev.ChatID, ev.RoleID, ev.Typing)
		},
	})
	sess := notebook.New(st, merge.New(st, logger), prov, cfg.Notebook.HistoryLimit, logger)
	sy := chatsync.New(st, logger)
	notes := noteservice.NewService(st, db)

	svc := api.Services{
		Store:     st,
		Notes:     notes,
		Chat:      chatSvc,
		Sync:      sy,
		Session:   sess,
		Selection: selection.NewController(st, sy, sess, export.New(sink, logger)),
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the index in step with the store.
	g.Go(func() error {
		return indexer.Run(gCtx)
	})

	if cfg.Presets.Watch {
		g.Go(func() error {
			if err := presets.Watch(gCtx, cfg.Presets.Path, st, logger); err != nil {
				logger.Warn("presets watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if app.mcp {
		return runMCP(g, logger, mcpserver.New(notes, sess))
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"index unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
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

// errShutdown cancels the group once the server has stopped so the
// background workers exit too.
var errShutdown = errors.New("shutdown")

// runMCP serves the MCP tools on stdio. The stdio server returns when stdin
// closes or the process is signalled.
func runMCP(g *errgroup.Group, logger *slog.Logger, srv *mcpserver.Server) error {
	g.Go(func() error {
		logger.Info("Starting MCP server on stdio")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("MCP server stopped")
	return nil
}
