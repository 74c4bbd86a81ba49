package config

const (
	// DefaultDatabasePath is the default path for the sqlite user database
	DefaultDatabasePath = "./sessionauth.db"

	// DefaultBasePath is where the auth routes are mounted
	DefaultBasePath = "/api/auth"

	DefaultSessionCookieName = "session"

	// DefaultBcryptCost keeps hashing fast enough for interactive logins
	DefaultBcryptCost = 8
)
