package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pantrywall/internal/app"
	"pantrywall/internal/cache"
	"pantrywall/internal/config"
	"pantrywall/internal/identity"
	"pantrywall/internal/journal"
	"pantrywall/internal/logging"
	"pantrywall/internal/pantry"
	"pantrywall/internal/session"
	"pantrywall/internal/wall"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	var store cache.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		logger.Info("using Redis for tab sessions and query cache")
		redisStore, err := cache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		store = redisStore
	} else {
		logger.Info("using in-memory tab sessions and query cache")
		store = cache.NewMemoryStore()
	}
	defer store.Close()

	client, err := pantry.NewClient(pantry.ClientConfig{
		BaseURL: cfg.PantryBaseURL,
		Timeout: cfg.PantryTimeout,
		Logger:  logger.Named("pantry"),
	})
	if err != nil {
		return err
	}

	checks := []app.ReadyCheck{
		{Name: "cache", Pinger: store},
		{Name: "pantry", Pinger: client},
	}

	serviceConfig := wall.ServiceConfig{
		Remote:      client,
		Cache:       store,
		CacheTTL:    cfg.CacheTTL,
		Sessions:    session.NewResolver(session.NewTabStore(store, cfg.TabTTL), logger.Named("session")),
		SettleDelay: cfg.Settle,
		Logger:      logger.Named("wall"),
	}
	deps := app.Deps{
		Identities: identity.NewManager(cfg.IdentityCookie, cfg.IdentityMaxAge, logger.Named("identity")),
		Logger:     logger.Named("http"),
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		activity, err := journal.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("journal unavailable: %w", err)
		}
		defer activity.Close()
		serviceConfig.Recorder = activity
		deps.Journal = activity
		checks = append(checks, app.ReadyCheck{Name: "journal", Pinger: activity})
		logger.Info("activity journal enabled")
	}

	deps.Wall = wall.NewService(serviceConfig)
	deps.Checks = checks
	service := app.New(cfg, deps)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("pantry wall listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-sigCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	return nil
}
