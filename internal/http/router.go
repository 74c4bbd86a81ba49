package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sessionauth/internal/auth"
	"github.com/mrlokans/sessionauth/internal/config"
	"github.com/mrlokans/sessionauth/internal/logging"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.CustomRecovery(recoveryHandler(logger)))
	router.Use(RequestIDMiddleware())
	router.Use(logging.RequestLogger(logger))

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	}

	router.NoRoute(respondNotFound)
	router.NoMethod(respondMethodNotAllowed)

	health := NewHealthController(cfg.HealthChecks, cfg.Version)
	router.GET("/health", health.Status)

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = config.DefaultBasePath
	}

	// Sessions are loaded only for the auth routes so that health probes and
	// metric scrapes never touch the session store.
	authRoutes := router.Group(basePath)
	authRoutes.Use(cfg.SessionManager.SessionLoadSave())
	authRoutes.Use(auth.ErrorHandler(logger))

	controller := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.RateLimiter)
	if cfg.AuditLog != nil {
		controller.WithAuditLog(cfg.AuditLog)
	}
	controller.RegisterRoutes(authRoutes)

	return router
}

func corsConfig(origins []string) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = origins
	corsCfg.AllowCredentials = true // session cookies
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", HeaderRequestID}
	corsCfg.ExposeHeaders = []string{HeaderRequestID, "Retry-After"}
	corsCfg.MaxAge = 12 * time.Hour
	return corsCfg
}

func recoveryHandler(logger *slog.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, auth.ErrorResponse{
			Message: "internal server error",
			Code:    auth.CodeInternal,
		})
	}
}
