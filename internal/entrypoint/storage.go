package entrypoint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/sessionauth/internal/audit"
	"github.com/mrlokans/sessionauth/internal/auth"
	"github.com/mrlokans/sessionauth/internal/config"
	"github.com/mrlokans/sessionauth/internal/database"
	auditRepo "github.com/mrlokans/sessionauth/internal/database/audit"
	"github.com/mrlokans/sessionauth/internal/database/postgres"
	"github.com/mrlokans/sessionauth/internal/database/users"
	http_controllers "github.com/mrlokans/sessionauth/internal/http"
)

// Storage is the user repository and session store selected by
// configuration, with the probes and cleanup that go with them.
type Storage struct {
	Users        auth.UserRepository
	Audit        audit.Store // nil unless AUDIT_ENABLED with the sqlite driver
	Sessions     scs.Store
	HealthChecks []http_controllers.HealthCheck

	closers []func()
}

// Close releases every connection in reverse order of opening.
func (s *Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenUsers connects the user repository and applies its migrations.
func OpenUsers(ctx context.Context, cfg *config.Config) (*Storage, error) {
	s := &Storage{}

	switch cfg.Database.Driver {
	case config.DatabaseDriverSQLite:
		db, err := database.NewDatabase(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		s.Users = users.NewRepository(db.DB)
		if cfg.Audit.Enabled {
			s.Audit = auditRepo.NewRepository(db.DB)
		}
		s.HealthChecks = append(s.HealthChecks, http_controllers.HealthCheck{Name: "database", Check: db.Ping})

		if cfg.Sessions.Store == config.SessionStoreSQLite {
			sqlDB, err := db.SQLDB()
			if err != nil {
				s.Close()
				return nil, err
			}
			store, err := auth.NewSQLiteSessionStore(sqlDB)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("create sessions table: %w", err)
			}
			s.closers = append(s.closers, store.StopCleanup)
			s.Sessions = store
		}

	case config.DatabaseDriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.Database.URL, cfg.Database.ConnectRetries)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool); err != nil {
			s.Close()
			return nil, err
		}
		s.Users = postgres.NewUserRepository(pool)
		if cfg.Audit.Enabled {
			slog.Warn("audit log is only available with the sqlite driver")
		}
		s.HealthChecks = append(s.HealthChecks, http_controllers.HealthCheck{Name: "database", Check: pool.Ping})
		slog.Info("database initialized", "driver", "postgres")

	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER %q", cfg.Database.Driver)
	}

	return s, nil
}

// Open connects the user repository and the session store.
func Open(ctx context.Context, cfg *config.Config) (*Storage, error) {
	s, err := OpenUsers(ctx, cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Sessions.Store {
	case config.SessionStoreSQLite:
		// Opened together with the sqlite user database.
	case config.SessionStoreMemory:
		s.Sessions = auth.NewMemorySessionStore()
	case config.SessionStoreRedis:
		client, err := auth.ConnectRedis(ctx, cfg.Redis.URL, cfg.Database.ConnectRetries)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.Sessions = auth.NewRedisSessionStore(client)
		s.HealthChecks = append(s.HealthChecks, http_controllers.HealthCheck{Name: "sessions", Check: auth.RedisPing(client)})
	default:
		s.Close()
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.Sessions.Store)
	}

	if s.Sessions == nil {
		s.Close()
		return nil, fmt.Errorf("SESSION_STORE=%s is not available with DATABASE_DRIVER=%s", cfg.Sessions.Store, cfg.Database.Driver)
	}

	slog.Info("session store initialized", "store", cfg.Sessions.Store)
	return s, nil
}
