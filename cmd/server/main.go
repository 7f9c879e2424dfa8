// @title        next-connect API
// @version      1.0
// @description  Session-based authentication API.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/next-connect/next-connect/internal/api"
	"github.com/next-connect/next-connect/internal/core/ports"
	"github.com/next-connect/next-connect/internal/core/service"
	"github.com/next-connect/next-connect/internal/infrastructure/config"
	mongostore "github.com/next-connect/next-connect/internal/infrastructure/db/mongo"
	"github.com/next-connect/next-connect/internal/infrastructure/db/postgres"
	redisstore "github.com/next-connect/next-connect/internal/infrastructure/db/redis"
	"github.com/next-connect/next-connect/internal/infrastructure/telemetry"
	"github.com/next-connect/next-connect/internal/session"
	"github.com/next-connect/next-connect/pkg/logger"
)

const serviceName = "next-connect"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not configured yet.
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: serviceName,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	shutdownTracing := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
	}, log)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	// --- Postgres: users and sessions ---
	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:          cfg.Postgres.URI,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Postgres.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info().Msg("postgres ready")

	users := postgres.NewUserRepository(db)
	var sessions ports.SessionStore = postgres.NewSessionStore(db)

	// --- Redis: optional session cache ---
	deps := api.Dependencies{Log: log, Production: cfg.Production(), DB: db}
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		sessions = redisstore.NewCachedSessionStore(sessions, rdb, log)
		deps.Redis = rdb
		log.Info().Str("addr", cfg.Redis.Addr).Msg("session cache enabled")
	}

	// --- Mongo: optional message store ---
	var messageRepo ports.MessageRepository
	if cfg.Mongo.URI != "" {
		client, mdb, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		if err := mongostore.EnsureIndexes(ctx, mdb); err != nil {
			return err
		}
		repo := mongostore.NewMessageRepository(mdb)
		if err := repo.EnsureSeed(ctx, service.DefaultMessage); err != nil {
			return err
		}
		messageRepo = repo
		deps.Mongo = client
		log.Info().Str("database", cfg.Mongo.Database).Msg("message store enabled")
	}

	// --- Auth ---
	deps.Sessions = session.NewManager(sessions, users, session.Options{
		Secret:            []byte(cfg.Session.Secret),
		TTL:               cfg.Session.TTL,
		Secure:            cfg.Production(),
		SaveUninitialized: cfg.Session.SaveUninitialized,
	}, log)
	deps.Signup = service.NewSignupStrategy(users, cfg.BcryptCost, log)
	deps.Signin = service.NewSigninStrategy(users, log)
	deps.Messages = service.NewMessageService(messageRepo, service.DefaultMessage)

	pruner, err := session.NewPruner(sessions, cfg.Session.PruneSchedule, log)
	if err != nil {
		return err
	}
	pruner.Start()
	defer func() { <-pruner.Stop().Done() }()

	e, err := api.NewRouter(deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      otelhttp.NewHandler(e, serviceName),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
