package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/sessionauth/internal/config"
	"github.com/mrlokans/sessionauth/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUsername = "username"
	SessionKeyLoginAt  = "login_at"
)

func init() {
	gob.Register(time.Time{})
}

// Session is the per-request slot holding the authenticated principal.
// Implementations read the session that the HTTP layer loaded into ctx.
type Session interface {
	Principal(ctx context.Context) (*entities.User, bool)
	SetPrincipal(ctx context.Context, user *entities.User) error
	Clear(ctx context.Context) error
}

// SessionManager wraps scs.SessionManager and implements Session.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a session manager backed by store.
func NewSessionManager(store scs.Store, cfg config.Sessions) *SessionManager {
	sm := scs.New()
	sm.Store = store

	sm.Lifetime = cfg.Lifetime
	sm.IdleTimeout = cfg.Lifetime / 2

	sm.Cookie.Name = cfg.CookieName
	if sm.Cookie.Name == "" {
		sm.Cookie.Name = config.DefaultSessionCookieName
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = cfg.SameSite
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}
}

// NewSQLiteSessionStore creates the sessions table in the sqlite user
// database and returns a store on top of it. The store runs a cleanup
// goroutine until StopCleanup is called.
func NewSQLiteSessionStore(db *sql.DB) (*sqlite3store.SQLite3Store, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}
	return sqlite3store.New(db), nil
}

// NewMemorySessionStore returns a process-local store. Sessions are lost on
// restart.
func NewMemorySessionStore() scs.Store {
	return memstore.New()
}

// Principal returns the user recorded by SetPrincipal, if any.
func (sm *SessionManager) Principal(ctx context.Context) (*entities.User, bool) {
	id := sm.GetInt(ctx, SessionKeyUserID)
	if id == 0 {
		return nil, false
	}
	return &entities.User{
		ID:       uint(id),
		Username: sm.GetString(ctx, SessionKeyUsername),
	}, true
}

// SetPrincipal marks the session as authenticated and commits it to the
// store. The token is renewed first to prevent session fixation. The password
// hash is never stored.
func (sm *SessionManager) SetPrincipal(ctx context.Context, user *entities.User) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	// Stored as int to match GetInt() retrieval
	sm.Put(ctx, SessionKeyUserID, int(user.ID))
	sm.Put(ctx, SessionKeyUsername, user.Username)
	sm.Put(ctx, SessionKeyLoginAt, time.Now())

	return sm.commit(ctx)
}

// commitState carries the outcome of an explicit commit to the response
// writer, so the cookie is written for that token instead of committing again.
type commitState struct {
	done   bool
	token  string
	expiry time.Time
	err    error
}

type commitStateKey struct{}

func withCommitState(ctx context.Context) (context.Context, *commitState) {
	state := &commitState{}
	return context.WithValue(ctx, commitStateKey{}, state), state
}

// commit saves the session now. The result is kept for the response writer
// when the request went through SessionLoadSave.
func (sm *SessionManager) commit(ctx context.Context) error {
	token, expiry, err := sm.Commit(ctx)
	if state, ok := ctx.Value(commitStateKey{}).(*commitState); ok {
		state.done = true
		state.token = token
		state.expiry = expiry
		state.err = err
	}
	if err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Clear destroys the session and expires its cookie.
func (sm *SessionManager) Clear(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// LoginAt returns when the principal logged in, or the zero time.
func (sm *SessionManager) LoginAt(ctx context.Context) time.Time {
	return sm.GetTime(ctx, SessionKeyLoginAt)
}
