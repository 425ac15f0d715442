// cmd/server/main.go
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

	"github.com/jason-s-yu/patience/internal/archive"
	"github.com/jason-s-yu/patience/internal/archive/file"
	"github.com/jason-s-yu/patience/internal/archive/sqlite"
	"github.com/jason-s-yu/patience/internal/auth"
	"github.com/jason-s-yu/patience/internal/cache"
	"github.com/jason-s-yu/patience/internal/config"
	"github.com/jason-s-yu/patience/internal/database"
	"github.com/jason-s-yu/patience/internal/game"
	"github.com/jason-s-yu/patience/internal/handlers"
	"github.com/jason-s-yu/patience/internal/middleware"
	"github.com/jason-s-yu/patience/internal/session"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatalf("parse LOG_LEVEL: %v", err)
	}
	logger.SetLevel(level)

	expiry, err := cfg.TokenExpiry()
	if err != nil {
		logger.Fatal(err)
	}
	if err := auth.Init(expiry); err != nil {
		logger.Fatalf("init auth: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := openBackends(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer backends.close()

	var opts []session.Option
	if cfg.DeckFile != "" {
		deck, err := game.LoadDeck(cfg.DeckFile, cfg.DeckName)
		if err != nil {
			logger.Fatalf("load deck: %v", err)
		}
		logger.Infof("Every game uses deck %q from %s", cfg.DeckName, cfg.DeckFile)
		opts = append(opts, session.WithDeckSource(func() game.Deck { return deck }))
	}

	store := session.NewStore()
	logged := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handlers.PingHandler)
	mux.Handle("GET /session/ws", logged(handlers.SessionWSHandler(logger, store, backends.archivers, opts...)))
	mux.Handle("GET /session/{id}", logged(handlers.SessionHandler(store)))
	if backends.counter != nil {
		mux.Handle("GET /player/stats", logged(handlers.StatsHandler(logger, backends.counter)))
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux}
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := handlers.Shutdown(shutdownCtx, srv, store); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	// Live sessions are archived before the deferred backends.close runs.
	<-shutdownDone
	logger.Info("Server stopped.")
}

type backends struct {
	archivers archive.Multi
	counter   handlers.StatusCounter
	closers   []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends connects every archive backend named in ARCHIVE_BACKENDS. Stats are
// served from postgres when enabled, otherwise from sqlite.
func openBackends(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*backends, error) {
	b := &backends{}
	fail := func(err error) (*backends, error) {
		b.close()
		return nil, err
	}

	if cfg.Uses(config.BackendFile) {
		b.archivers = append(b.archivers, file.New(cfg.HistoryPath))
	}
	if cfg.Uses(config.BackendSQLite) {
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return fail(fmt.Errorf("open sqlite: %w", err))
		}
		b.closers = append(b.closers, func() { _ = s.Close() })
		b.archivers = append(b.archivers, s)
		b.counter = s
	}
	if cfg.Uses(config.BackendPostgres) {
		pool, err := database.Connect(ctx, cfg.Postgres.URL())
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		b.closers = append(b.closers, pool.Close)
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return fail(fmt.Errorf("ensure schema: %w", err))
		}
		s := database.NewSessionStore(pool)
		b.archivers = append(b.archivers, s)
		b.counter = s
	}
	if cfg.Uses(config.BackendRedis) {
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		b.archivers = append(b.archivers, cache.NewSessionQueue(rdb, cfg.Redis.QueueName))
	}

	logger.WithField("backends", cfg.ArchiveBackends).Info("Archive backends ready")
	return b, nil
}
