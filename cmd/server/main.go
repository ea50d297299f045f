package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hogwarts/facility-booking/internal/app"
	"github.com/hogwarts/facility-booking/internal/booking"
	"github.com/hogwarts/facility-booking/internal/config"
	"github.com/hogwarts/facility-booking/internal/db"
	"github.com/hogwarts/facility-booking/internal/pkg/logger"
	"github.com/hogwarts/facility-booking/internal/pkg/mq"
	"github.com/hogwarts/facility-booking/internal/pkg/obs"
	"github.com/hogwarts/facility-booking/internal/pkg/request"
)

const (
	serviceName = "facility-booking"

	eventQueueSize      = 1024
	eventPublishTimeout = 2 * time.Second
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("failed to load config", "error", err)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})
	slog.SetDefault(log.Logger)

	// run returns only after its deferred cleanup has finished
	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", "error", err)
	}
	log.Info("server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if err := request.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	// Tracing
	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.AppEnv, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	// Optional Redis for rate limiting
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, rate limiter will fail open", "addr", cfg.RedisAddr, "error", err)
		}
	}

	// Optional broker for booking events, delivered off the request path
	var events booking.EventPublisher = mq.Nop{}
	if cfg.AMQPURL != "" {
		pub, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn("rabbitmq unavailable, booking events disabled", "error", err)
		} else {
			defer pub.Close()
			async := mq.NewAsync(pub, eventQueueSize, eventPublishTimeout, func(key string, err error) {
				log.Warn("deliver booking event failed", "event", key, "error", err)
			})
			defer func() {
				drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := async.Close(drainCtx); err != nil {
					log.Warn("booking events not fully delivered", "error", err)
				}
			}()
			events = async
		}
	}

	appCfg := app.Config{
		IsProduction:    cfg.IsProduction(),
		Origins:         cfg.Origins(),
		DBPool:          pool,
		JWTSecret:       cfg.JWTSecret,
		JWTTTL:          cfg.JWTAccessTokenTTL,
		BcryptCost:      cfg.BcryptCost,
		Logger:          log,
		FacilityAliases: cfg.FacilityAliases,
		BookRateLimit:   cfg.BookRateLimit,
		BookRateWindow:  cfg.BookRateWindow,
		Events:          events,
	}
	if rdb != nil {
		appCfg.Redis = rdb
	}
	container := app.NewContainer(appCfg)

	// Installs the default catalog on a fresh database; otherwise just loads aliases.
	loadFacilities := container.FacilityService.Reload
	if cfg.MigrateOnStart {
		loadFacilities = container.FacilityService.EnsureDefaults
	}
	if err := loadFacilities(ctx); err != nil {
		return fmt.Errorf("load facilities: %w", err)
	}

	if cfg.AdminPassword != "" {
		created, err := container.UserService.EnsureAdmin(ctx, cfg.AdminHogwartsID, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("ensure admin account: %w", err)
		}
		if created {
			log.Info("admin account created", "hogwarts_id", cfg.AdminHogwartsID)
		}
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("server running", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
	return serve(ctx, server, log)
}

// serve runs server until ctx ends or the listener fails, then shuts it down.
func serve(ctx context.Context, server *http.Server, log *logger.Logger) error {
	// Run server in separate goroutine
	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for Ctrl+C or a listener failure
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", "error", err)
	}
	return nil
}
