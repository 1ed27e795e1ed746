package entrypoint

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

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/catalog"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/authors"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/borrows"
	"github.com/mrlokans/library/internal/database/users"
	http_controllers "github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/ledger"
	"github.com/mrlokans/library/internal/logging"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests for up to the configured shutdown timeout.
func Serve(handler http.Handler, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String(), "timeout", timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests first so nothing new reaches the services being torn down.
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	slog.Info("server exited")
	return nil
}

// Run wires every component from cfg and serves until a shutdown signal.
func Run(cfg *config.Config, version string) error {
	logging.InitLogger(cfg.Log.Level)
	slog.Info("starting library service", "version", version)

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()

	userRepo := users.NewRepository(db.DB)
	authorRepo := authors.NewRepository(db.DB)
	bookRepo := books.NewRepository(db.DB)
	borrowRepo := borrows.NewRepository(db.DB)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))

	ledgerService := ledger.NewService(bookRepo, userRepo, borrowRepo, ledger.WithRecorder(auditService))
	catalogService := catalog.NewService(authorRepo, bookRepo, borrowRepo, userRepo, catalog.WithRecorder(auditService))

	healthChecks := map[string]http_controllers.Pinger{
		"database": db,
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = auth.GenerateSecret()
		if err != nil {
			return fmt.Errorf("failed to generate token secret: %w", err)
		}
		slog.Warn("AUTH_JWT_SECRET is not set, using a random secret; tokens will not survive a restart")
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:   secret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.Auth.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to configure tokens: %w", err)
	}

	var revoker auth.TokenRevoker
	switch cfg.Auth.RevocationBackend {
	case config.RevocationRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis is not reachable yet", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()

		revoker = auth.NewRedisRevoker(redisClient)
		healthChecks["redis"] = http_controllers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		slog.Info("token revocation backend: redis", "addr", cfg.Redis.Addr)
	case config.RevocationMemory, "":
		revoker = auth.NewMemoryRevoker()
		slog.Info("token revocation backend: memory")
	default:
		return fmt.Errorf("unsupported revocation backend %q", cfg.Auth.RevocationBackend)
	}

	authService, err := auth.NewService(userRepo, tokens, revoker, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}

	rateLimiter := auth.NewRateLimiter(auth.RateLimitConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		WindowDuration:  cfg.Auth.RateLimitWindow,
		LockoutDuration: cfg.Auth.LockoutDuration,
	})

	// Initialize task queue and the audit retention schedule if enabled
	var taskClient *tasks.Client
	var cleanupScheduler *scheduler.AuditCleanupScheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				slog.Error("error closing task client", "error", err)
			}
		}()

		taskClient.Register(tasks.NewCleanupAuditEventsQueue(auditService))
		healthChecks["tasks"] = taskClient

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		taskClient.Start(taskCtx)

		cleanupScheduler = scheduler.NewAuditCleanupScheduler(taskClient, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays)
		if err := cleanupScheduler.Start(taskCtx); err != nil {
			taskCtxCancel()
			return fmt.Errorf("failed to start audit cleanup scheduler: %w", err)
		}
	} else {
		healthChecks["tasks"] = nil
		slog.Info("task queue disabled, audit events are kept indefinitely")
	}

	if cfg.Ledger.SelfService {
		slog.Info("ledger self-service mode: users may only borrow and return for themselves")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Ledger:         ledgerService,
		Catalog:        catalogService,
		Audit:          auditService,
		AuthService:    authService,
		RateLimiter:    rateLimiter,
		HealthChecks:   healthChecks,
		SelfService:    cfg.Ledger.SelfService,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		rateLimiter.Stop()
		auditService.Wait()
	}

	return Serve(router, cfg, onShutdown)
}
