// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - UserFinder: Lookup of users by filter (internal/auth/validator.go)
//   - UserRepository: UserFinder plus Add (internal/auth/service.go)
//
// Implementations live in internal/database/users (gorm + sqlite) and
// internal/database/postgres (pgx).
//
// ## Credential Interfaces
//
//   - PasswordHasher: One-way hashing and comparison (internal/auth/password.go)
//   - Stage: A single validation step run before register or login (internal/auth/validator.go)
//
// ## Session Interfaces
//
//   - Session: Holds the authenticated principal for a request (internal/auth/sessions.go)
//   - scs.Store: Session persistence (sqlite3store, memstore, goredisstore)
//
// # Adding a New User Backend
//
//  1. Create a repository with Add and FindBy:
//
//     type Repository struct { db *sql.DB }
//
//     func (r *Repository) Add(ctx context.Context, user *entities.User) (*entities.User, error)
//     func (r *Repository) FindBy(ctx context.Context, filter users.Filter) ([]entities.User, error)
//
//  2. Return users.ErrDuplicateUsername on unique violations so the
//     service reports them as integrity violations.
//
//  3. Select it in internal/entrypoint/storage.go.
//
// # Adding a New Validation Stage
//
//	func CheckNotReserved(ctx context.Context, creds auth.Credentials) (*auth.Rejection, error) {
//	    if creds.Username == "admin" {
//	        return &auth.Rejection{Status: http.StatusUnprocessableEntity, Message: "Username reserved"}, nil
//	    }
//	    return nil, nil
//	}
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
