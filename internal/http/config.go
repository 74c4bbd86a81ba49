package http

import (
	"context"
	"log/slog"

	"github.com/mrlokans/sessionauth/internal/auth"
	"github.com/mrlokans/sessionauth/internal/metrics"
)

// HealthCheck is one named dependency probe for the health endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	RateLimiter    *auth.RateLimiter // nil disables login throttling
	AuditLog       auth.AuditLog     // nil disables the auth audit trail

	Logger  *slog.Logger
	Metrics *metrics.Metrics // nil disables /metrics

	// Routing
	BasePath    string   // prefix for the auth routes
	CORSOrigins []string // empty disables CORS handling

	HealthChecks []HealthCheck

	// Application info
	Version string
}
