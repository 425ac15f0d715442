// cmd/historian/main.go is an asynchronous historian service that pops archived sessions from a Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/patience/internal/cache"
	"github.com/jason-s-yu/patience/internal/config"
	"github.com/jason-s-yu/patience/internal/database"
	"github.com/jason-s-yu/patience/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.Postgres.URL())
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	hs := historian.NewService(
		cache.NewSessionQueue(rdb, cfg.Redis.QueueName),
		database.NewSessionStore(pool),
		cfg.Historian.BatchSize,
		cfg.Historian.FlushDelay,
		logger,
	)
	if err := hs.Run(ctx); err != nil {
		logger.Errorf("final flush: %v", err)
	}
	logger.Info("Historian shutdown complete.")
}
