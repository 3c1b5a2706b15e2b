// Package main is the entry point for the chat agent.
//
// Usage:
//
//	chat-agent [--config path]              serve POST /chat
//	chat-agent test-api <provider> <message> call the provider once and print the reply
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hpn/hpn-chat-agent/internal/adapter"
	"github.com/hpn/hpn-chat-agent/internal/config"
	"github.com/hpn/hpn-chat-agent/internal/domain"
	"github.com/hpn/hpn-chat-agent/internal/handler"
	"github.com/hpn/hpn-chat-agent/internal/security"
	"github.com/hpn/hpn-chat-agent/internal/ui"
	"github.com/spf13/pflag"
)

// endpoints is the route table printed at startup.
var endpoints = []ui.Endpoint{
	{Method: http.MethodPost, Path: "/chat", Description: "Send a chat message (also /Chat)"},
	{Method: http.MethodGet, Path: "/health", Description: "Health check"},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "test-api" {
		code := runTestAPI(ctx, os.Args[2:], os.Stdout, os.Stderr)
		stop()
		os.Exit(code)
	}

	flags := pflag.NewFlagSet("chat-agent", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to config.yaml (default: search ., ./configs, /etc/chat-agent)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	code := serve(ctx, *configPath)
	stop()
	os.Exit(code)
}

// serve runs the HTTP server until ctx is cancelled. Configuration and
// provider selection complete before the listener is opened.
func serve(ctx context.Context, configPath string) int {
	// =========================================================================
	// 1. Load configuration
	// =========================================================================
	cfg, err := config.Load(configPath)
	if err != nil {
		setupLogger("info", "json", os.Stderr).Error("failed to load configuration", slog.String("error", err.Error()))
		ui.PrintError(os.Stderr, configFailure(err))
		return 1
	}

	// =========================================================================
	// 2. Setup structured logger
	// =========================================================================
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)

	logger.Info("configuration loaded",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("provider", cfg.AIProvider.Default),
		slog.Duration("request_timeout", cfg.AIProvider.RequestTimeout()),
	)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// =========================================================================
	// 3. Bind the provider and build the server
	// =========================================================================
	srv, provider, err := buildServer(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize chat provider", slog.String("error", err.Error()))
		ui.PrintError(os.Stderr, err.Error())
		return 1
	}

	// =========================================================================
	// 4. Start HTTP server
	// =========================================================================
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("address", srv.Addr))
		ui.PrintBanner(os.Stdout, provider.Name())
		ui.PrintStartupInfo(os.Stdout, srv.Addr, provider.Name(), modelName(cfg), endpoints)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// =========================================================================
	// 5. Graceful shutdown on SIGTERM/SIGINT
	// =========================================================================
	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("server error", slog.String("error", err.Error()))
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	ui.PrintShutdown(os.Stdout)

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("server stopped gracefully")
	ui.PrintGoodbye(os.Stdout)
	return 0
}

// buildServer selects the provider and wires it into the router. It fails
// without opening a listener when the provider cannot be bound.
func buildServer(cfg *config.Configuration, logger *slog.Logger) (*http.Server, adapter.AIProvider, error) {
	provider, err := adapter.NewFromConfig(cfg.AIProvider, logger)
	if err != nil {
		return nil, nil, err
	}

	chatHandler := handler.NewChatHandler(provider,
		handler.WithLogger(logger),
		handler.WithProviderName(provider.Name()),
	)

	router := gin.New()

	// Apply middleware
	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(handler.CORSMiddleware())
	router.Use(handler.LoggingMiddleware(logger))

	// Register routes
	router.POST("/chat", chatHandler.HandleChat)
	router.POST("/Chat", chatHandler.HandleChat)
	router.GET("/health", chatHandler.HandleHealth)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	return srv, provider, nil
}

// modelName returns the model or deployment of the selected provider.
func modelName(cfg *config.Configuration) string {
	if p, err := cfg.AIProvider.Provider(); err == nil && p == domain.ProviderGemini {
		return cfg.AIProvider.Gemini.ModelName
	}
	return cfg.AIProvider.OpenAI.DeploymentName
}

// setupLogger creates a structured logger that redacts credentials and sets
// it as the default logger.
func setupLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: lvl,
	}

	var base slog.Handler
	if format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(security.NewRedactedHandler(base))

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}
