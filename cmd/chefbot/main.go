package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chefbot/internal/chat"
	"chefbot/internal/config"
	"chefbot/internal/domaingate"
	"chefbot/internal/httpserver"
	"chefbot/internal/llm"
	"chefbot/internal/middleware"
	"chefbot/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	httpClient := transport.NewHTTPClient(cfg.RequestTimeout)
	backends := llm.NewRegistry(
		llm.NewHostedClient(cfg.Hosted, httpClient, logger),
		llm.NewLocalClient(cfg.Local, httpClient, logger),
	)
	if cfg.Hosted.APIKey == "" {
		logger.Warn("RAPIDAPI_KEY is not set, hosted backend will reject requests")
	}

	sessions := chat.NewMemorySessionStore(cfg.Session.MaxTurns)
	chatService := chat.NewService(chat.ServiceConfig{
		Policy:   domaingate.New(cfg.DomainPolicy),
		Backends: backends,
		Sessions: sessions,
		Cache:    chat.NewMemoryReplyCache(cfg.Session.CacheSize),
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var limiter *middleware.RateLimiter
	if cfg.ChatRateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.ChatRateLimit, time.Minute)
		go limiter.Run(ctx)
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:      logger,
		Chat:        chatService,
		Backends:    backends,
		CORSOrigin:  cfg.CORSOrigin,
		ChatLimiter: limiter,
	})

	server := httpserver.NewServer(cfg.Addr(), router, cfg.RequestTimeout)

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr()),
			slog.String("domain_policy", cfg.DomainPolicy),
			slog.Int("session_max_turns", sessions.MaxTurns()),
			slog.String("ollama_host", cfg.Local.BaseURL),
			slog.String("ollama_model", cfg.Local.Model),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
