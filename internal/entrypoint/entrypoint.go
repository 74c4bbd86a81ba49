package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mrlokans/sessionauth/internal/audit"
	"github.com/mrlokans/sessionauth/internal/auth"
	"github.com/mrlokans/sessionauth/internal/config"
	http_controllers "github.com/mrlokans/sessionauth/internal/http"
	"github.com/mrlokans/sessionauth/internal/logging"
	"github.com/mrlokans/sessionauth/internal/metrics"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App is the fully wired service.
type App struct {
	Handler http.Handler
	Service *auth.Service

	storage     *Storage
	rateLimiter *auth.RateLimiter
	audit       *audit.Service
	closeOnce   sync.Once
}

// NewApp wires storage, the auth service and the router from configuration.
func NewApp(ctx context.Context, cfg *config.Config, version string, logger *slog.Logger) (*App, error) {
	storage, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	hasher, err := auth.NewPasswordHasher(cfg.Auth)
	if err != nil {
		storage.Close()
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	service, err := auth.NewService(storage.Users, hasher, auth.WithLogger(logger), auth.WithMetrics(m))
	if err != nil {
		storage.Close()
		return nil, err
	}

	var limiter *auth.RateLimiter
	if cfg.Auth.RateLimitEnabled {
		limiter = auth.NewRateLimiter(auth.RateLimitConfig{
			MaxAttempts:     cfg.Auth.MaxLoginAttempts,
			WindowDuration:  cfg.Auth.RateLimitWindow,
			LockoutDuration: cfg.Auth.LockoutDuration,
			OnLockout:       m.RecordLockout,
		})
	}

	routerCfg := http_controllers.RouterConfig{
		AuthService:    service,
		SessionManager: auth.NewSessionManager(storage.Sessions, cfg.Sessions),
		RateLimiter:    limiter,
		Logger:         logger,
		Metrics:        m,
		BasePath:       cfg.HTTP.BasePath,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		HealthChecks:   storage.HealthChecks,
		Version:        version,
	}

	var auditLog *audit.Service
	if storage.Audit != nil {
		auditLog = audit.NewService(storage.Audit, logger)
		routerCfg.AuditLog = auditLog
		if pruned, err := auditLog.DeleteOldEvents(ctx, cfg.Audit.Retention); err != nil {
			logger.Warn("failed to prune audit log", "error", err)
		} else if pruned > 0 {
			logger.Info("pruned audit log", "deleted", pruned, "retention", cfg.Audit.Retention)
		}
	}

	return &App{
		Handler:     http_controllers.NewRouter(routerCfg),
		Service:     service,
		storage:     storage,
		rateLimiter: limiter,
		audit:       auditLog,
	}, nil
}

// Close stops background work and closes connections. It is safe to call
// more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.rateLimiter != nil {
			a.rateLimiter.Stop()
		}
		if a.audit != nil {
			a.audit.Wait()
		}
		a.storage.Close()
	})
}

// Serve serves the app until shutdown and closes it afterwards, including
// when the listener fails to start.
func (a *App) Serve(cfg *config.Config) error {
	defer a.Close()
	return Serve(a.Handler, cfg, nil)
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// gracefully within the configured timeout.
func Serve(handler http.Handler, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "base_path", cfg.HTTP.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// kill (no param) default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	slog.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Stop background work only after in-flight requests have drained.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	slog.Info("server exiting")
	return nil
}

// Run validates configuration, wires the app and serves it.
func Run(cfg *config.Config, version string) error {
	logger := logging.SetDefault("sessionauth", version, cfg.Logging.Format, cfg.Logging.Level)
	logger.Info("starting sessionauth", "version", version)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	app, err := NewApp(context.Background(), cfg, version, logger)
	if err != nil {
		return err
	}

	return app.Serve(cfg)
}
