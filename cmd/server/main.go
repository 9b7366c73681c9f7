package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"favlinks/internal/config"
	"favlinks/internal/handlers"
	"favlinks/internal/repository"
	"favlinks/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Background context for workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// 3. Initialize Database
	pool, err := repository.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// 4. Run Migrations
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("Database unreachable, schema setup continues in the background",
			"category", string(repository.Classify(err)), "error", err)
		go func() {
			if err := repository.EnsureSchema(workerCtx, pool, logger); err != nil {
				logger.Error("Schema setup abandoned", "error", err)
			}
		}()
	} else if err := pool.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 5. Rate limit store
	var limiter services.WindowLimiter
	if cfg.RedisURL != "" {
		rdb, err := repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0)
		if err != nil {
			logger.Warn("Failed to connect to Redis, using in-memory rate limiting", "error", err)
		} else {
			defer rdb.Close()
			limiter = services.NewRedisSlidingWindow(rdb, cfg.RateLimitMax, cfg.RateLimitWindow, logger)
		}
	}
	if limiter == nil {
		memory := services.NewMemorySlidingWindow(cfg.RateLimitMax, cfg.RateLimitWindow)
		memory.StartCleanup(workerCtx, time.Minute)
		limiter = memory
	}
	throttle := services.NewIPRateLimiter(cfg.AuthRateLimitPerMinute, cfg.AuthRateLimitBurst, logger)
	throttle.StartCleanup(workerCtx, 10*time.Minute, 30*time.Minute)

	// 6. Initialize Services
	db := pool.DB(context.Background())
	auditService := services.NewAuditService(db, logger)
	userRepo := repository.NewUserRepository(pool)
	userService := services.NewUserService(userRepo, auditService)
	strategy := services.NewLocalStrategy(userRepo)
	linkService := services.NewLinkService(repository.NewLinkRepository(pool), auditService)

	// 7. Initialize Handler
	h := handlers.NewHandler(cfg, logger, pool, userService, strategy, linkService, auditService)

	// 8. Setup Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := h.SetupRouter(limiter, throttle, handlers.NewSessionStore(cfg, db))
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	// 9. Start Server with Graceful Shutdown
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.Port, err)
	}

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go auditService.Start(workerCtx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", ln.Addr().String(), "env", cfg.AppEnv)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	workerCancel()
	// Give the audit worker a moment to finish its current write.
	time.Sleep(100 * time.Millisecond)

	logger.Info("Server exiting")
	return nil
}
