package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rfidattendance/internal/config"
	"rfidattendance/internal/logging"
	"rfidattendance/internal/notify"
	"rfidattendance/internal/observability"
	"rfidattendance/internal/queue"
	"rfidattendance/internal/store"
)

var version = "dev"

// Worker consumes notification messages and delivers them.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	lg, err := logging.New(logging.Options{
		Level: cfg.LogLevel, Production: cfg.IsProduction(), Service: "worker", Version: version,
	})
	if err != nil {
		panic(err)
	}
	defer lg.Close()
	log := lg.Logger

	flush, err := observability.InitSentry(observability.SentryOptions{
		DSN: cfg.SentryDSN, Env: cfg.Env, Release: version, Service: "worker",
	})
	if err != nil {
		log.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	if cfg.QueueBackend == "memory" {
		log.Fatal("QUEUE_BACKEND=memory is consumed inside the api process; run the worker with the redis backend")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Warn("redis not reachable yet, consumer will retry", zap.String("addr", cfg.RedisAddr))
	}

	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey).OnError(func(err error) {
		log.Warn("queue receive failed", zap.Error(err))
	})

	if err := notify.NewWorker(q, notify.LogSender{Log: log}, log).Run(ctx); err != nil {
		log.Fatal("worker failed", zap.Error(err))
	}
}
