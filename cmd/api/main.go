package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/jambo-bank/jambo_bank/internal/config"
	"github.com/jambo-bank/jambo_bank/internal/infra"
	"github.com/jambo-bank/jambo_bank/internal/logging"
	"github.com/jambo-bank/jambo_bank/internal/routes"
	"github.com/jambo-bank/jambo_bank/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := server.Logger(logging.New(cfg.LogLevel), cfg)

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		if err := infra.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
			logger.Error("migrate postgres", "error", err)
			os.Exit(1)
		}
		db, err = infra.NewPostgresPool(ctx, infra.PostgresOptions{
			URL:      cfg.DatabaseURL,
			AppName:  cfg.AppName,
			MaxConns: cfg.DBMaxConns,
		})
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	} else {
		logger.Warn("DATABASE_URL not set, balances are kept in memory")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	var writer *kafka.Writer
	if len(cfg.KafkaBrokers) > 0 {
		writer, err = infra.NewKafkaWriter(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Warn("close kafka writer", "error", err)
			}
		}()
	}

	srv, err := server.New(routes.Deps{Cfg: cfg, DB: db, Cache: cache, Kafka: writer, Logger: logger})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
