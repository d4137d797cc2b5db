package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/99minutos/accounts-api/internal/api"
	"github.com/99minutos/accounts-api/internal/api/middleware"
	"github.com/99minutos/accounts-api/internal/core/ports"
	"github.com/99minutos/accounts-api/internal/core/service"
	"github.com/99minutos/accounts-api/internal/infrastructure/blob"
	mongostore "github.com/99minutos/accounts-api/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/accounts-api/internal/infrastructure/db/redis"
	"github.com/99minutos/accounts-api/internal/infrastructure/http/handlers"
	"github.com/99minutos/accounts-api/internal/infrastructure/queue"
	"github.com/99minutos/accounts-api/internal/pkg/config"
	"github.com/99minutos/accounts-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "accounts-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("server exited properly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     "accounts-api",
		Timeout:     cfg.Mongo.Timeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		MinPoolSize: cfg.Mongo.MinPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongostore.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	identities := redisstore.NewIdentityCache(rdb, users, cfg.Redis.IdentityTTL, log)

	blobs, err := blob.NewLocalStore(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	// --- Core ---
	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	authService := service.NewAuthService(users, hasher, tokens, log)

	if cfg.Admin.Enabled() {
		admin, err := authService.EnsureAdmin(ctx, ports.RegisterInput{
			Username: cfg.Admin.Username,
			Email:    cfg.Admin.Email,
			Fullname: cfg.Admin.Username,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		_ = identities.Invalidate(ctx, admin.Username)
	}

	g, gCtx := errgroup.WithContext(ctx)

	janitor := queue.NewDispatcher(cfg.Uploads.CleanupWorkers, blobs, log)
	janitor.Start(gCtx)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.SignInRate), cfg.RateLimit.SignInBurst)
	g.Go(func() error {
		limiter.Run(gCtx)
		return nil
	})

	userService := service.NewUserService(users, blobs, janitor, identities, log)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Log:                log,
		Auth:               authService,
		Users:              userService,
		Tokens:             tokens,
		Identities:         identities,
		Readiness:          handlers.NewHealthDependenciesHandler(handlers.MongoCheck(db), handlers.RedisCheck(rdb)),
		SignInLimiter:      limiter,
		UploadDir:          blobs.Dir(),
		BodyLimit:          cfg.Uploads.MaxSize,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	address := ":" + cfg.Port
	log.Info().Str("address", address).Str("env", cfg.Env).Msg("starting accounts api")

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	janitor.Wait()
	return err
}
