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

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/docs"
	"github.com/starford/ansuz/internal/images"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/pipeline"
	"github.com/starford/ansuz/internal/provider"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/store"
)

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := buildApp(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	broker := sse.NewBroker()
	defer broker.Close()

	db, orch, cache, err := buildPipeline(app, broker)
	if err != nil {
		return err
	}
	defer db.Close()

	apiRouter := api.NewRouter(orch, db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Guideline docs watcher clears the cache on out-of-band edits.
	if cfg.Docs.Watch {
		g.Go(func() error {
			if err := docs.Watch(gCtx, cache, logger); err != nil {
				logger.Warn("docs watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the pipeline over MCP stdio instead of HTTP.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := buildApp(opts)
	if err != nil {
		return err
	}

	db, orch, _, err := buildPipeline(app, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Starting MCP server on stdio")
	return mcpserver.New(orch, db).ServeStdio()
}

func buildApp(opts []Option) (*application, *slog.Logger, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("docs_path", cfg.Docs.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return app, logger, nil
}

// buildPipeline constructs the shared singleton services: project store,
// document cache, provider clients, and the orchestrator wired over them.
func buildPipeline(app *application, events pipeline.StatusPublisher) (*store.DB, *pipeline.Orchestrator, *docs.Cache, error) {
	cfg := app.config

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init store: %w", err)
	}

	if err := os.MkdirAll(cfg.Docs.Path, 0o755); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("create docs dir: %w", err)
	}
	cache := docs.NewCache(cfg.Docs.Path, cfg.Docs.Guidelines)

	text := app.text
	if text == nil {
		text, err = provider.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
		if err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("init text provider: %w", err)
		}
	}

	searcher := app.searcher
	if searcher == nil {
		searcher = provider.NewUnsplash(cfg.Unsplash.AccessKey, cfg.Unsplash.BaseURL, cfg.Unsplash.PerPage)
	}

	orch := pipeline.New(pipeline.Deps{
		Store:           db,
		Text:            text,
		Images:          images.NewReplacer(searcher, cfg.Pipeline.ImageDelay()),
		Docs:            cache,
		Events:          events,
		Planner:         profile(cfg.OpenAI.Planner),
		Research:        profile(cfg.OpenAI.Research),
		Writer:          profile(cfg.OpenAI.Writer),
		DefaultLanguage: cfg.Pipeline.DefaultLanguage,
		ResearchEnabled: cfg.Pipeline.ResearchEnabled,
	})

	return db, orch, cache, nil
}

func profile(c ProfileConfig) pipeline.ModelProfile {
	return pipeline.ModelProfile{
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout(),
	}
}
