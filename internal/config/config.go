package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"   // gorm + sqlite file (default)
	DatabaseDriverPostgres DatabaseDriver = "postgres" // pgx pool
)

type SessionStore string

const (
	SessionStoreSQLite SessionStore = "sqlite" // shares the sqlite user database
	SessionStoreMemory SessionStore = "memory" // process-local, lost on restart
	SessionStoreRedis  SessionStore = "redis"
)

type PasswordHasher string

const (
	PasswordHasherBcrypt   PasswordHasher = "bcrypt"
	PasswordHasherArgon2id PasswordHasher = "argon2id"
)

type (
	Config struct {
		HTTP
		Global
		Logging
		Database
		Sessions
		Redis
		Auth
		Audit
		Metrics
	}

	HTTP struct {
		Port        int32
		Host        string
		BasePath    string   // Prefix for the auth routes (default: /api/auth)
		CORSOrigins []string // Empty disables CORS handling
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Logging struct {
		Level  string // debug, info, warn, error
		Format string // json or text
	}
	Database struct {
		Driver         DatabaseDriver
		Path           string // sqlite file
		URL            string // postgres DSN
		ConnectRetries int
	}
	Sessions struct {
		Store         SessionStore
		Lifetime      time.Duration
		CookieName    string
		SecureCookies bool // Set to false for local dev without HTTPS
		SameSite      http.SameSite
	}
	Redis struct {
		URL string
	}
	Auth struct {
		PasswordHasher PasswordHasher
		BcryptCost     int

		// Rate limiting configuration
		RateLimitEnabled bool
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Audit struct {
		Enabled   bool          // Record register/login/logout attempts (sqlite only)
		Retention time.Duration // Events older than this are pruned on start
	}
	Metrics struct {
		Enabled bool
	}
)

// loadDotEnv populates the process environment from .env files when present.
// Variables already set in the environment win.
func loadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		_ = godotenv.Load(name)
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func NewConfig() *Config {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("http_base_path", DefaultBasePath)
	v.SetDefault("cors_allowed_origins", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Storage defaults
	v.SetDefault("database_driver", string(DatabaseDriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_url", "")
	v.SetDefault("database_connect_retries", 5)

	// Session defaults
	v.SetDefault("session_store", string(SessionStoreSQLite))
	v.SetDefault("session_lifetime", "24h")
	v.SetDefault("session_cookie_name", DefaultSessionCookieName)
	v.SetDefault("session_secure_cookies", true) // HTTPS-only cookies
	v.SetDefault("session_same_site", "lax")
	v.SetDefault("redis_url", "redis://127.0.0.1:6379/0")

	// Auth defaults
	v.SetDefault("auth_password_hasher", string(PasswordHasherBcrypt))
	v.SetDefault("auth_bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("auth_rate_limit_enabled", true)
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	v.SetDefault("audit_enabled", true)
	v.SetDefault("audit_retention", "2160h") // 90 days

	v.SetDefault("metrics_enabled", true)

	return &Config{
		HTTP: HTTP{
			Port:        v.GetInt32("PORT"),
			Host:        v.GetString("HOST"),
			BasePath:    v.GetString("HTTP_BASE_PATH"),
			CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Database: Database{
			Driver:         DatabaseDriver(strings.ToLower(v.GetString("DATABASE_DRIVER"))),
			Path:           v.GetString("DATABASE_PATH"),
			URL:            v.GetString("DATABASE_URL"),
			ConnectRetries: v.GetInt("DATABASE_CONNECT_RETRIES"),
		},
		Sessions: Sessions{
			Store:         SessionStore(strings.ToLower(v.GetString("SESSION_STORE"))),
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			CookieName:    v.GetString("SESSION_COOKIE_NAME"),
			SecureCookies: v.GetBool("SESSION_SECURE_COOKIES"),
			SameSite:      parseSameSite(v.GetString("SESSION_SAME_SITE")),
		},
		Redis: Redis{
			URL: v.GetString("REDIS_URL"),
		},
		Auth: Auth{
			PasswordHasher:   PasswordHasher(strings.ToLower(v.GetString("AUTH_PASSWORD_HASHER"))),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			RateLimitEnabled: v.GetBool("AUTH_RATE_LIMIT_ENABLED"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Audit: Audit{
			Enabled:   v.GetBool("AUDIT_ENABLED"),
			Retention: v.GetDuration("AUDIT_RETENTION"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}
}

// Validate rejects unknown backends and combinations that cannot work together.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DatabaseDriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite driver")
		}
	case DatabaseDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver)
	}

	switch c.Sessions.Store {
	case SessionStoreSQLite:
		if c.Database.Driver != DatabaseDriverSQLite {
			return fmt.Errorf("SESSION_STORE=sqlite requires DATABASE_DRIVER=sqlite")
		}
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis session store")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.Sessions.Store)
	}

	switch c.Auth.PasswordHasher {
	case PasswordHasherBcrypt, PasswordHasherArgon2id:
	default:
		return fmt.Errorf("unknown AUTH_PASSWORD_HASHER %q", c.Auth.PasswordHasher)
	}

	if c.Sessions.Lifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME must be positive")
	}

	return nil
}
