// Command server runs the sessions API.
//
// @title        Sessions API
// @version      1.0
// @description  Local and GitHub login with server-side sessions.
// @BasePath     /
package main

//go:generate swag init --dir ../../ --generalInfo cmd/server/main.go --output ../../docs --parseInternal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/storefront/sessions-api/internal/api"
	"github.com/storefront/sessions-api/internal/api/handler"
	"github.com/storefront/sessions-api/internal/api/session"
	"github.com/storefront/sessions-api/internal/core/service"
	mongostore "github.com/storefront/sessions-api/internal/infrastructure/db/mongo"
	redisstore "github.com/storefront/sessions-api/internal/infrastructure/db/redis"
	"github.com/storefront/sessions-api/internal/infrastructure/oauth"
	"github.com/storefront/sessions-api/internal/infrastructure/queue"
	"github.com/storefront/sessions-api/internal/pkg/config"
	"github.com/storefront/sessions-api/pkg/logger"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "sessions-api",
	})
	if envErr != nil {
		log.Debug().Msg(".env not loaded, continuing with environment variables")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("all systems stopped gracefully")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return fmt.Errorf("ensure indexes: %w", err)
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return err
	}

	// --- Core ---
	users := mongostore.NewUserRepository(db)

	audit := queue.NewDispatcher(cfg.AuditWorkers, mongostore.NewAuthEventRepository(db),
		logger.Component(log, "audit"))
	audit.Start(context.Background())

	strategies := service.NewStrategySet(users, service.NewBcryptHasher(cfg.BcryptCost), audit,
		logger.Component(log, "strategies"))

	sessions := session.NewManager(
		redisstore.NewSessionStore(rdb),
		service.NewIdentitySerializer(users),
		session.Config{
			CookieName:  cfg.Session.CookieName,
			Lifetime:    cfg.Session.Lifetime,
			IdleTimeout: cfg.Session.IdleTimeout,
			Secure:      cfg.Session.SecureCookie,
		},
		logger.Component(log, "sessions"),
	)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Strategies: strategies,
		Sessions:   sessions,
		Github: handler.GithubFlow{
			Provider: oauth.NewGithubProvider(oauth.GithubConfig{
				ClientID:     cfg.Github.ClientID,
				ClientSecret: cfg.Github.ClientSecret,
				CallbackURL:  cfg.Github.CallbackURL,
			}),
			States:          oauth.NewStateSigner(cfg.Github.StateSecret, cfg.Github.StateTTL),
			SuccessRedirect: cfg.Github.SuccessRedirect,
			FailureRedirect: cfg.Github.FailureRedirect,
		},
		Readiness: map[string]handler.DependencyCheck{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
		Log: log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("github", cfg.Github.Enabled()).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal, shutting down")
	case runErr = <-serverErr:
		log.Error().Err(runErr).Msg("http server failed, shutting down")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// The server goes first so no request records audit events after the
	// dispatcher closed.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	if err := audit.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("audit dispatcher did not drain")
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			return fmt.Errorf("mongo disconnect: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := rdb.Close(); err != nil {
			return fmt.Errorf("redis close: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("error closing stores")
	}

	return runErr
}
