// @title        Auth Gateway API
// @version      1.0
// @description  Credential and impersonation session endpoints of the events dashboard.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/eventhub/auth-gateway/internal/api"
	"github.com/eventhub/auth-gateway/internal/api/handler"
	"github.com/eventhub/auth-gateway/internal/core/service"
	mongodb "github.com/eventhub/auth-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/eventhub/auth-gateway/internal/infrastructure/db/redis"
	"github.com/eventhub/auth-gateway/internal/infrastructure/graphql"
	"github.com/eventhub/auth-gateway/internal/infrastructure/queue"
	"github.com/eventhub/auth-gateway/internal/pkg/config"
	"github.com/eventhub/auth-gateway/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "auth-gateway",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mongo")
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	auditRepo := mongodb.NewAuditRepository(db)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create audit indexes")
	}

	dispatcherCtx, stopDispatcher := context.WithCancel(ctx)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, log)
	dispatcher.Start(dispatcherCtx)

	backend := graphql.NewBackend(graphql.NewClient(cfg.GraphQL.URL, cfg.GraphQL.Timeout, log))
	verifier := service.NewCredentialVerifier(cfg.JWTSecret, cfg.JWTLeeway)
	sessions := service.NewSessionService(backend, verifier, dispatcher, log)

	ipExtractor, err := api.NewIPExtractor(cfg.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}

	e := api.NewRouter(api.Dependencies{
		Sessions: sessions,
		Verifier: verifier,
		Audit:    auditRepo,
		Limiter:  redisdb.NewRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window),
		Cookies:  handler.NewCookiePolicy(cfg.IsProduction(), cfg.Cookie.Domain, cfg.Cookie.MaxAge),
		Health: map[string]handler.Pinger{
			"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log:         log,
		Registerer:  prometheus.DefaultRegisterer,
		IPExtractor: ipExtractor,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	// Audit events queued by in-flight requests are flushed before exit.
	stopDispatcher()
	dispatcher.Wait()
	log.Info().Msg("shutdown complete")
}

func waitForShutdown(log zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("shutting down")
}
