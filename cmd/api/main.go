package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rfidattendance/internal/account"
	"rfidattendance/internal/attendance"
	"rfidattendance/internal/auth"
	"rfidattendance/internal/config"
	"rfidattendance/internal/handler"
	"rfidattendance/internal/httpmiddleware"
	"rfidattendance/internal/logging"
	"rfidattendance/internal/metrics"
	"rfidattendance/internal/notify"
	"rfidattendance/internal/observability"
	"rfidattendance/internal/queue"
	"rfidattendance/internal/store"
	"rfidattendance/internal/student"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	lg, err := logging.New(logging.Options{
		Level: cfg.LogLevel, Production: cfg.IsProduction(), Service: "api", Version: version,
	})
	if err != nil {
		panic(err)
	}
	defer lg.Close()

	flush, err := observability.InitSentry(observability.SentryOptions{
		DSN: cfg.SentryDSN, Env: cfg.Env, Release: version, Service: "api",
	})
	if err != nil {
		lg.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, lg.Logger); err != nil {
		lg.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := store.Bootstrap(ctx, db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var (
		q      queue.Queue
		tokens account.ResetTokens
	)
	if cfg.QueueBackend == "memory" {
		mem := queue.NewInMemory(64)
		q, tokens = mem, account.NewMemoryResetTokens()
		// No separate worker can see an in-process queue; drain it here.
		go func() {
			_ = notify.NewWorker(mem, notify.LogSender{Log: log}, log).Run(ctx)
		}()
	} else {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
		tokens = account.NewRedisResetTokens(redisClient.Client)
	}

	issuer := auth.NewIssuer(cfg.JWTIssuer, cfg.JWTSecret)

	logRepo := attendance.NewRepository(db.Client)
	logs := attendance.NewService(logRepo, nil)
	students := student.NewService(student.NewRepository(db.Client, logRepo), logs)
	accounts := account.NewService(
		account.NewRepository(db.Client),
		account.NewSessionLogRepository(db.Client),
		tokens, q, issuer, auth.NewHasher(cfg.BcryptCost), nil,
		account.Config{
			LoginTTL:    cfg.LoginTokenTTL,
			RegisterTTL: cfg.RegisterTokenTTL,
			ResetTTL:    cfg.ResetTokenTTL,
			ResetURL:    cfg.ResetURL,
		},
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(log, "/healthz", "/metrics"))
	r.Use(httpmiddleware.Metrics())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.Timeout(cfg.DBTimeout))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", handler.Health(map[string]func(context.Context) bool{
		"db": func(ctx context.Context) bool {
			start := time.Now()
			defer func() { metrics.ObserveDBPing(time.Since(start)) }()
			return db.Healthy(ctx)
		},
		"redis": redisClient.Healthy,
	}))

	limiter := httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	handler.New(students, accounts, log).Routes(r, issuer, limiter.GinMiddleware())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", httpmiddleware.HeaderRequestID},
		ExposeHeaders: []string{httpmiddleware.HeaderRequestID, "Content-Disposition"},
		MaxAge:        24 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
