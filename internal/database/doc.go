// Package database provides the sqlite data access layer for the service.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations (gorm + sqlite)
//	├── users/           # gorm-backed user repository
//	├── audit/           # gorm-backed auth audit events
//	└── postgres/        # pgx-backed user repository with goose migrations
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./sessionauth.db")
//	repo := users.NewRepository(db.DB)
//
//	user, err := repo.Add(ctx, &entities.User{Username: "sue", Password: hash})
//	matches, err := repo.FindBy(ctx, users.Filter{"username": "sue"})
//
// Both repositories report a unique-key violation on insert as
// users.ErrDuplicateUsername so callers can tell a lost registration race from
// an infrastructure failure.
package database
