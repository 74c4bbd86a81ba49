package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/sessionauth/internal/auth"
	"github.com/mrlokans/sessionauth/internal/database/postgres"
	"github.com/mrlokans/sessionauth/internal/database/users"
)

// =============================================================================
// User Repository
// =============================================================================

var _ auth.UserRepository = (*users.Repository)(nil)
var _ auth.UserRepository = (*postgres.UserRepository)(nil)

// =============================================================================
// Password Hashing
// =============================================================================

var _ auth.PasswordHasher = (*auth.BcryptHasher)(nil)
var _ auth.PasswordHasher = (*auth.Argon2idHasher)(nil)

// =============================================================================
// Sessions
// =============================================================================

var _ auth.Session = (*auth.SessionManager)(nil)
var _ scs.Store = (*goredisstore.RedisStore)(nil)
var _ scs.Store = (*sqlite3store.SQLite3Store)(nil)
