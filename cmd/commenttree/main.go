package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"

	"github.com/Shahabul87/alam-lms-sub003/internal/auth"
	commenthttp "github.com/Shahabul87/alam-lms-sub003/internal/comment/handler/http"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/service"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/storage"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/storage/cache"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/storage/inmemory"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/storage/postgres"
	"github.com/Shahabul87/alam-lms-sub003/internal/config"
	"github.com/Shahabul87/alam-lms-sub003/internal/logger"
	"github.com/Shahabul87/alam-lms-sub003/internal/ratelimit"
)

var startupRetry = retry.Strategy{Attempts: 5, Delay: 500 * time.Millisecond, Backoff: 2}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := retry.DoContext(ctx, startupRetry, func() error { return rdb.Ping(ctx).Err() }); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		repo = cache.New(repo, rdb, cfg.Storage.CacheTTL, log)
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis cache and rate limiter enabled")
	}

	h := commenthttp.New(service.New(repo), commenthttp.Options{
		Issuer:  auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Limiter: limiter,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("storage", cfg.Storage.Driver).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openRepository(ctx context.Context, cfg config.Config, log zerolog.Logger) (storage.Repository, func(), error) {
	if cfg.Storage.Driver != "postgres" {
		return inmemory.New(), func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)

	if err := retry.DoContext(ctx, startupRetry, func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	if cfg.Postgres.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	log.Info().Msg("postgres storage ready")

	return postgres.New(db), func() { db.Close() }, nil
}
