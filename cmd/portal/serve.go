package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/condaura/portal/internal/api"
	"github.com/condaura/portal/internal/core/ports"
	"github.com/condaura/portal/internal/core/service"
	"github.com/condaura/portal/internal/infrastructure/backend"
	"github.com/condaura/portal/internal/infrastructure/config"
	"github.com/condaura/portal/internal/infrastructure/db/memory"
	mongostore "github.com/condaura/portal/internal/infrastructure/db/mongo"
	redisstore "github.com/condaura/portal/internal/infrastructure/db/redis"
	"github.com/condaura/portal/internal/infrastructure/http/handlers"
	"github.com/condaura/portal/internal/infrastructure/secure"
	"github.com/condaura/portal/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "condaura-portal",
	})

	keys, err := secure.DeriveKeys(cfg.Session.Secret)
	if err != nil {
		return fmt.Errorf("SESSION_SECRET: %w", err)
	}

	stores, checks, closeStore, err := openSessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, logger.Component("backend"))
	if err != nil {
		return err
	}
	checks["backend"] = client.Ping

	authSvc := backend.NewAuthService(client)
	registry := service.NewControllerRegistry(
		secure.NewSealedStores(stores, keys.Seal),
		authSvc,
		logger.Component("session"),
	)
	go registry.Run(ctx, sweepInterval, cfg.Session.Idle)

	e, err := api.NewRouter(api.RouterDeps{
		Log:           log,
		Registry:      registry,
		Cookies:       secure.NewBrowserCookies(keys.Cookie),
		CookieSecure:  cfg.Session.CookieSecure,
		Passwords:     authSvc,
		Campaigns:     backend.NewCampaignService(client),
		Reviews:       backend.NewReviewService(client),
		Notifications: backend.NewNotificationService(client),
		Imports:       backend.NewImportService(client),
		Reports:       backend.NewReportService(client),
		Checks:        checks,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("backend", client.BaseURL()).
			Str("session_backend", cfg.Session.Backend).
			Msg("portal listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openSessionStore connects the configured SESSION_BACKEND and returns its
// store factory, readiness checks and a close function.
func openSessionStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.SessionStoreFactory, map[string]handlers.Check, func(), error) {
	checks := make(map[string]handlers.Check)

	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		checks["redis"] = handlers.RedisCheck(rdb)
		return redisstore.NewSessionStores(rdb, cfg.Session.TTL), checks, func() { _ = rdb.Close() }, nil

	case config.SessionBackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "condaura-portal",
		})
		if err != nil {
			return nil, nil, nil, err
		}
		stores := mongostore.NewSessionStores(db)
		if err := stores.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		checks["mongodb"] = handlers.MongoCheck(db)
		return stores, checks, func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		log.Warn().Msg("using in-memory session store; sessions are lost on restart")
		return memory.NewFactory(), checks, func() {}, nil
	}
}
