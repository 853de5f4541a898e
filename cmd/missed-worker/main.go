package main

import (
	"context"
	"syscall"
	"time"

	"os/signal"

	"go.uber.org/zap"

	"github.com/PlusPioneers/BookingApplication/internal/config"
	"github.com/PlusPioneers/BookingApplication/internal/db"
	redisclient "github.com/PlusPioneers/BookingApplication/internal/redis"
	"github.com/PlusPioneers/BookingApplication/internal/schedule"
)

// missed-worker periodically sweeps upcoming bookings whose slot has passed
// and marks them missed, so staff see them queued for follow-up or
// rescheduling without anyone touching each record by hand.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log := newLogger(cfg.Env)
	defer func() { _ = log.Sync() }()

	log.Info("missed-worker starting",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("error closing redis", zap.Error(err))
		}
	}()
	log.Info("connected to Redis")

	repo := schedule.NewPgRepository(pgPool)
	notifier := redisclient.NewChangeNotifier(rdb, log)
	svc := schedule.NewService(repo, nil, notifier, log)

	// Run once at startup
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info("shutdown signal received, stopping missed-worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *schedule.Service, log *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	marked, err := svc.MarkMissedBookings(runCtx)
	if err != nil {
		log.Error("missed sweep error", zap.Error(err))
		return
	}
	log.Info("missed sweep complete",
		zap.Int("marked", marked),
		zap.Duration("took", time.Since(start)))
}

func newLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}
