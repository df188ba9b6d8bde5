// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"go-music-api/config"
	"go-music-api/db"
	"go-music-api/handler"
	"go-music-api/logger"
	"go-music-api/metrics"
	"go-music-api/repository"
	"go-music-api/router"
	"go-music-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// App holds the wired HTTP router and the background workers.
type App struct {
	Router       http.Handler
	Purger       *service.RevocationPurger
	LoginLimiter *handler.LoginRateLimiter
}

// New wires repositories, services and handlers. rdb may be nil, in which case
// revocation lookups go straight to the database.
func New(cfg *config.Config, database *sql.DB, rdb *redis.Client, reg *prometheus.Registry) *App {
	collector := metrics.NewCollector(reg)

	userRepo := repository.NewUserRepository(database)
	var revocationRepo repository.IRevocationRepository = repository.NewRevocationRepository(database)
	if rdb != nil {
		revocationRepo = repository.NewRevocationCache(revocationRepo, rdb)
	}

	hasher := service.NewPasswordHasher(cfg.Security.BcryptCost)
	codec := service.NewTokenCodec(cfg.JWT.SecretKey)
	authService := service.NewAuthService(userRepo, revocationRepo, hasher, codec, service.SessionConfig{
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
	})
	userService := service.NewUserService(userRepo, hasher)

	limiter := handler.NewLoginRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst, collector)

	r := router.NewRouter(router.Dependencies{
		Auth:          handler.NewAuthHandler(authService, collector, cfg.JWT.RefreshTokenTTL),
		Users:         handler.NewUserHandler(userService),
		Health:        handler.NewHealthHandler(database),
		Authenticator: authService,
		LoginLimiter:  limiter,
		Metrics:       collector,
		Gatherer:      reg,
	})

	return &App{
		Router:       r,
		Purger:       service.NewRevocationPurger(revocationRepo, cfg.Cleanup.Interval, collector),
		LoginLimiter: limiter,
	}
}

func Run() {
	logger.Init()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		logger.Log.Fatalf("Error configuring logger: %v", err)
	}
	logger.Log.Info("Configuration loaded successfully")

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logger.Log.WithError(err).Warn("Sentry initialization failed, continuing without error reporting")
		}
		defer sentry.Flush(2 * time.Second)
	}

	database, err := db.Connect(cfg)
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(cfg.DatabaseURL()); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	rdb, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := New(cfg, database, rdb, reg)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go a.Purger.Start(ctx)
	go a.LoginLimiter.Start(ctx)

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
