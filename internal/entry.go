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

	"github.com/sourcelens/sourcelens/internal/analysis"
	"github.com/sourcelens/sourcelens/internal/api"
	"github.com/sourcelens/sourcelens/internal/chat"
	"github.com/sourcelens/sourcelens/internal/graphgen"
	"github.com/sourcelens/sourcelens/internal/importer"
	"github.com/sourcelens/sourcelens/internal/library"
	"github.com/sourcelens/sourcelens/internal/llm"
	"github.com/sourcelens/sourcelens/internal/mcpserver"
	"github.com/sourcelens/sourcelens/internal/sse"
	"github.com/sourcelens/sourcelens/internal/wiki"
)

// newRegistry builds the provider registry from config. Providers
// without an API key stay unregistered.
func newRegistry(cfg *Config) *llm.Registry {
	var providers []llm.Provider
	if p := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:  cfg.Providers.OpenAI.APIKey,
		BaseURL: cfg.Providers.OpenAI.BaseURL,
		Timeout: cfg.Providers.OpenAI.Timeout,
	}); p != nil {
		providers = append(providers, p)
	}
	if p := llm.NewAnthropic(llm.AnthropicConfig{
		APIKey:  cfg.Providers.Anthropic.APIKey,
		BaseURL: cfg.Providers.Anthropic.BaseURL,
		Timeout: cfg.Providers.Anthropic.Timeout,
	}); p != nil {
		providers = append(providers, p)
	}
	if p := llm.NewGemini(llm.GeminiConfig{
		APIKey:  cfg.Providers.Gemini.APIKey,
		BaseURL: cfg.Providers.Gemini.BaseURL,
		Timeout: cfg.Providers.Gemini.Timeout,
	}); p != nil {
		providers = append(providers, p)
	}
	return llm.NewRegistry(providers...)
}

// openLibrary opens the configured library store backend.
func openLibrary(cfg *Config) (library.Store, error) {
	switch cfg.Library.Mode {
	case LibraryModeSupabase:
		return library.NewSupabase(cfg.Library.SupabaseURL, cfg.Library.SupabaseKey)
	default:
		return library.OpenSQLite(cfg.Library.SQLitePath)
	}
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_mode", cfg.Library.Mode),
		slog.String("drop_path", cfg.Drop.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Library store.
	store, err := openLibrary(cfg)
	if err != nil {
		return fmt.Errorf("init library: %w", err)
	}
	defer store.Close()

	// Providers and services.
	registry := newRegistry(cfg)
	sessions := chat.NewStore(cfg.Chat.SessionTTL)
	broker := sse.NewBroker(2 * time.Second)

	h := api.NewHandler(
		analysis.NewService(registry),
		graphgen.NewGenerator(registry),
		chat.NewService(sessions, registry),
		wiki.NewService(registry),
		store,
		broker,
	)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Drop.Path)

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

	g, gCtx := errgroup.WithContext(ctx)

	// Chat session janitor.
	g.Go(func() error {
		sessions.Janitor(gCtx, cfg.Chat.CleanupInterval)
		return nil
	})

	// Drop-directory importer.
	if cfg.Drop.Path != "" {
		if err := os.MkdirAll(cfg.Drop.Path, 0o755); err != nil {
			return fmt.Errorf("create drop dir: %w", err)
		}
		imp, err := importer.New(store, broker, logger, cfg.Drop.Path)
		if err != nil {
			return fmt.Errorf("init importer: %w", err)
		}
		if err := imp.Sync(gCtx); err != nil {
			logger.Warn("initial import failed", slog.String("error", err.Error()))
		}
		g.Go(func() error {
			return imp.Watch(gCtx)
		})
	}

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

	err = g.Wait()
	broker.Close()
	if err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP stdio transport instead of HTTP, exposing the
// analysis tools to LLM clients.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// MCP talks JSON-RPC on stdout; keep logs on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := openLibrary(cfg)
	if err != nil {
		return fmt.Errorf("init library: %w", err)
	}
	defer store.Close()

	registry := newRegistry(cfg)
	srv := mcpserver.New(
		analysis.NewService(registry),
		graphgen.NewGenerator(registry),
		store,
	)
	return srv.ServeStdio()
}
