package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lounge/backend/internal/chat"
	"lounge/backend/internal/config"
	"lounge/backend/internal/database"
	"lounge/backend/internal/directory"
	"lounge/backend/internal/events"
	"lounge/backend/internal/handler"
	"lounge/backend/internal/hub"
	"lounge/backend/internal/idem"
	"lounge/backend/internal/metrics"
	"lounge/backend/internal/middleware"
	"lounge/backend/internal/relation"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// app holds the long-lived dependencies shared by every command.
type app struct {
	db        *gorm.DB
	directory *directory.Directory
	publisher events.Publisher
	friends   *relation.Service

	closers []func() error
}

func setup() (*app, error) {
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is empty, tokens are signed with an empty key")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	a := &app{db: db, directory: directory.New(db), publisher: events.Nop{}}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		a.publisher = kp
		a.closers = append(a.closers, kp.Close)
		slog.Info("publishing domain events to kafka", "brokers", brokers, "topic", cfg.KafkaTopic)
	}
	a.friends = relation.NewService(relation.NewGormStore(db), a.directory, a.publisher)
	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("shutdown step failed", "error", err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *app) idempotencyStore(ctx context.Context) idem.Store {
	addr := config.AppConfig.RedisAddr
	if addr == "" {
		slog.Info("REDIS_ADDR not set, idempotency keys are kept in memory")
		return a.memoryIdempotency()
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis not reachable, idempotency keys are kept in memory", "addr", addr, "error", err)
		_ = rdb.Close()
		return a.memoryIdempotency()
	}
	a.closers = append(a.closers, rdb.Close)
	return idem.NewRedis(rdb)
}

func (a *app) memoryIdempotency() *idem.Memory {
	m := idem.NewMemory()
	done := make(chan struct{})
	go m.RunSweeper(done, time.Minute)
	a.closers = append(a.closers, func() error {
		close(done)
		return nil
	})
	return m
}

func serve(ctx context.Context) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := database.Migrate(a.db); err != nil {
		return err
	}
	metrics.Register()

	cfg := config.AppConfig
	rooms := hub.New()
	h := handler.New(handler.Options{
		DB:                  a.db,
		Directory:           a.directory,
		Friends:             a.friends,
		Chat:                chat.NewService(chat.NewGormStore(a.db), rooms, a.publisher),
		Rooms:               rooms,
		Idempotency:         a.idempotencyStore(ctx),
		WSMessagesPerSecond: cfg.WSMessagesPerSecond,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	done := make(chan struct{})
	defer close(done)
	go limiter.RunCleanup(done)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(h, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server is running", "addr", cfg.HTTPAddr)
		slog.Info("Swagger UI is available at /swagger/index.html")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func migrate() error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()
	return database.Migrate(a.db)
}

func reconcile(ctx context.Context, userID uint, peers []uint) error {
	if userID == 0 {
		return errors.New("--user must be a user id")
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.directory.User(ctx, userID); err != nil {
		return err
	}
	report, err := a.friends.Reconcile(ctx, userID, peers...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
