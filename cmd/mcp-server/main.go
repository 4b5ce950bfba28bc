// Package main provides the MCP server entry point for the artifact catalog.
package main

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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/bull/artifact-catalog/internal/config"
	"github.com/bull/artifact-catalog/internal/loader"
	"github.com/bull/artifact-catalog/internal/markdown"
	mcpserver "github.com/bull/artifact-catalog/internal/mcp"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "v0.1.0"

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the stdio transport, so logs always go to stderr.
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	fetcher, err := loader.NewFetcher(cfg.IndexLocation)
	if err != nil {
		return fmt.Errorf("invalid index location: %w", err)
	}
	cache := loader.NewCache(fetcher, logger)

	// A missing index is not fatal: tools report it and retry on the next call.
	if idx, err := cache.Load(ctx, false); err != nil {
		logger.Warn("Index not loaded yet", "location", cfg.IndexLocation, "error", err)
	} else {
		logger.Info("Index loaded", "location", cfg.IndexLocation, "files", len(idx.Files), "version", idx.Version)
	}

	server := mcpserver.NewServer(&mcpserver.Config{Index: cache, Version: version})

	mux := mcpserver.NewMux(mcpserver.Routes{
		MCP:        mcpserver.NewHTTPHandler(server, &mcpserver.HTTPHandlerOptions{Stateless: cfg.Server.Stateless}),
		Health:     mcpserver.NewHealthHandler(cache),
		Landing:    mcpserver.NewLandingHandler(cache, markdown.NewRenderer(), logger),
		References: http.FileServer(http.Dir(cfg.ReferencesDir)),
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Server.Mode == config.ModeHTTP {
		// HTTP mode: serve MCP over HTTP for remote clients
		logger.Info("Starting HTTP server", "addr", httpServer.Addr, "mcp", "/mcp", "health", "/health")
		g.Go(func() error { return serve(httpServer) })
	} else {
		// Stdio mode: run MCP server over stdin/stdout for local clients.
		// HTTP endpoints run in the background; bind errors are only logged.
		go func() {
			logger.Info("Starting HTTP server", "addr", httpServer.Addr)
			if err := serve(httpServer); err != nil {
				logger.Warn("HTTP server error", "error", err)
			}
		}()

		logger.Info("Starting artifact catalog MCP server (stdio mode)")
		g.Go(func() error {
			// The client disconnecting ends the session and the HTTP side with it.
			defer stop()
			err := server.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func serve(s *http.Server) error {
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
