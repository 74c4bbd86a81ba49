// Command seed_users creates a sqlite database with demo accounts for local
// development.
// Usage: go run ./cmd/seed_users [-db path/to/auth.db]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mrlokans/sessionauth/internal/auth"
	"github.com/mrlokans/sessionauth/internal/config"
	"github.com/mrlokans/sessionauth/internal/database"
	"github.com/mrlokans/sessionauth/internal/database/users"
	"github.com/mrlokans/sessionauth/internal/logging"
)

const defaultSeedDatabasePath = "./demo/auth.db"

// demoAccounts are well-known credentials. Never seed them into a shared
// environment.
var demoAccounts = []auth.Credentials{
	{Username: "sue", Password: "1234"},
	{Username: "bob", Password: "hunter22"},
	{Username: "alice", Password: "correct horse battery staple"},
}

func main() {
	dbPath := flag.String("db", defaultSeedDatabasePath, "path to the sqlite database file")
	fresh := flag.Bool("fresh", true, "remove the existing database first")
	flag.Parse()

	logger := logging.SetDefault("seed_users", "dev", "text", "info")

	if err := seed(context.Background(), *dbPath, *fresh, logger); err != nil {
		logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("demo users seeded", "db", *dbPath, "count", len(demoAccounts))
}

func seed(ctx context.Context, dbPath string, fresh bool, logger *slog.Logger) error {
	if fresh {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}

	db, err := database.NewDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	hasher := auth.NewBcryptHasher(config.DefaultBcryptCost)
	service, err := auth.NewService(users.NewRepository(db.DB), hasher, auth.WithLogger(logger))
	if err != nil {
		return err
	}

	for _, creds := range demoAccounts {
		user, err := service.Register(ctx, creds)
		if rejection, ok := auth.AsRejection(err); ok {
			logger.Warn("skipping demo user", "username", creds.Username, "reason", rejection.Message)
			continue
		}
		if err != nil {
			return err
		}
		logger.Info("created demo user", "username", user.Username, "id", user.ID)
	}
	return nil
}
