package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"freightbench/internal/benchmark"
	"freightbench/internal/config"
	"freightbench/internal/db"
	"freightbench/internal/logger"
	"freightbench/internal/refdata"
	"freightbench/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store refdata.Store
		repo  benchmark.Repository = benchmark.NopRepository{}
		ping  func(context.Context) error
	)
	switch {
	case cfg.DatabaseURL != "":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.NewPoolWithOptions(connectCtx, cfg.DatabaseURL, db.PoolOptions{MaxConns: int32(cfg.Benchmark.Workers) + 4})
		if err == nil {
			err = pool.Ping(connectCtx)
		}
		cancel()
		if err != nil {
			log.Fatal("failed to connect db", zap.Error(err))
		}
		defer pool.Close()
		store = refdata.NewPostgres(pool)
		repo = benchmark.NewPostgresRepository(pool, cfg.Benchmark.UpsertByShipment)
		ping = pool.Ping
	case cfg.ReferenceSeed != "":
		mem, err := refdata.LoadSeed(cfg.ReferenceSeed)
		if err != nil {
			log.Fatal("failed to load reference seed", zap.String("path", cfg.ReferenceSeed), zap.Error(err))
		}
		store = mem
		log.Warn("running without database; benchmarks are not persisted", zap.String("seed", cfg.ReferenceSeed))
	default:
		log.Fatal("no reference data configured: set DATABASE_URL or REFERENCE_SEED")
	}

	var notifier benchmark.Notifier = benchmark.NopNotifier{}
	if cfg.Redis.Addr != "" {
		rn, err := benchmark.NewRedisNotifier(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rn.Close()
		notifier = rn
	}

	engine := benchmark.NewAssembler(store, cfg.EngineDefaults(),
		benchmark.WithRepository(repo),
		benchmark.WithNotifier(notifier),
		benchmark.WithLogger(log))

	h := server.New(engine, log, server.Options{
		Batch:        cfg.BatchOptions(),
		MaxBatchSize: cfg.Benchmark.MaxBatchSize,
		Ping:         ping,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("api listening",
		zap.String("addr", srv.Addr),
		zap.String("rounding_mode", cfg.Engine.RoundingMode),
		zap.Int("workers", cfg.Benchmark.Workers))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}
