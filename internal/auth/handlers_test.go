package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/sessionauth/internal/database/users"
	"github.com/mrlokans/sessionauth/internal/entities"
)

type testServer struct {
	router     *gin.Engine
	sessions   *SessionManager
	controller *AuthController
}

func newTestServer(t *testing.T, repo UserRepository, limiter *RateLimiter) *testServer {
	t.Helper()
	return newTestServerWithSessions(t, repo, limiter, newTestSessionManager())
}

func newTestServerWithSessions(t *testing.T, repo UserRepository, limiter *RateLimiter, sm *SessionManager) *testServer {
	t.Helper()

	svc := newTestService(t, repo, WithLogger(discardLogger()))

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.Use(ErrorHandler(discardLogger()))

	controller := NewAuthController(svc, sm, limiter)
	controller.RegisterRoutes(router)
	t.Cleanup(controller.Stop)

	return &testServer{router: router, sessions: sm, controller: controller}
}

func newSQLiteRepo(t *testing.T) *users.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return users.NewRepository(db)
}

func (s *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	return nil
}

func TestAuthFlow_EndToEnd(t *testing.T) {
	srv := newTestServer(t, newSQLiteRepo(t), nil)

	w := srv.do(t, http.MethodPost, "/register", `{"username":"sue","password":"1234"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"id":1,"username":"sue"}`, w.Body.String())
	assert.Nil(t, sessionCookie(w), "register must not start a session")

	w = srv.do(t, http.MethodPost, "/login", `{"username":"sue","password":"1234"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Welcome sue!"}`, w.Body.String())
	cookie := sessionCookie(w)
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.True(t, cookie.HttpOnly)

	w = srv.do(t, http.MethodPost, "/login", `{"username":"sue","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, w.Body.String())

	w = srv.do(t, http.MethodGet, "/me", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var me MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, uint(1), me.ID)
	assert.Equal(t, "sue", me.Username)
	require.NotNil(t, me.LoginAt)
	assert.WithinDuration(t, time.Now(), *me.LoginAt, time.Minute)
	assert.NotContains(t, w.Body.String(), "password")

	w = srv.do(t, http.MethodGet, "/logout", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"logged out"}`, w.Body.String())
	cleared := sessionCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	w = srv.do(t, http.MethodGet, "/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "old cookie must not authenticate after logout")

	w = srv.do(t, http.MethodGet, "/logout", "", cookie)
	assert.JSONEq(t, `{"message":"no session"}`, w.Body.String())
}

func TestRegister_Responses(t *testing.T) {
	srv := newTestServer(t, newSQLiteRepo(t), nil)

	w := srv.do(t, http.MethodPost, "/register", `{"username":"sue","password":"1234"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotContains(t, body, "password")

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{
			name:     "short password",
			body:     `{"username":"bob","password":"123"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantBody: `{"message":"Password must be longer than 3 chars"}`,
		},
		{
			name:     "taken username",
			body:     `{"username":"sue","password":"5678"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantBody: `{"message":"Username taken"}`,
		},
		{
			name:     "missing fields",
			body:     `{}`,
			wantCode: http.StatusUnprocessableEntity,
			wantBody: `{"message":"Password must be longer than 3 chars"}`,
		},
		{
			name:     "malformed json",
			body:     `{"username":`,
			wantCode: http.StatusBadRequest,
			wantBody: `{"message":"invalid request body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/register", tt.body, nil)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestLogin_UnknownUserIs401(t *testing.T) {
	srv := newTestServer(t, newSQLiteRepo(t), nil)

	w := srv.do(t, http.MethodPost, "/login", `{"username":"ghost","password":"1234"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, w.Body.String())
	assert.Nil(t, sessionCookie(w))
}

func TestLogin_FailureLeavesExistingSessionAnonymous(t *testing.T) {
	srv := newTestServer(t, newSQLiteRepo(t), nil)
	srv.do(t, http.MethodPost, "/register", `{"username":"sue","password":"1234"}`, nil)

	w := srv.do(t, http.MethodPost, "/login", `{"username":"sue","password":"nope"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, sessionCookie(w), "a failed login must not create a session")
}

func TestLogin_RenewsSessionToken(t *testing.T) {
	srv := newTestServer(t, newSQLiteRepo(t), nil)
	srv.do(t, http.MethodPost, "/register", `{"username":"sue","password":"1234"}`, nil)

	first := sessionCookie(srv.do(t, http.MethodPost, "/login", `{"username":"sue","password":"1234"}`, nil))
	require.NotNil(t, first)

	second := sessionCookie(srv.do(t, http.MethodPost, "/login", `{"username":"sue","password":"1234"}`, first))
	require.NotNil(t, second)
	assert.NotEqual(t, first.Value, second.Value)

	w := srv.do(t, http.MethodGet, "/me", "", first)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "the replaced token must be dead")
}

// failingCommitStore accepts reads but cannot save sessions.
type failingCommitStore struct {
	scs.Store
	err error
}

func (s failingCommitStore) Commit(string, []byte, time.Time) error {
	return s.err
}

func TestLogin_SessionCommitFailureIs500(t *testing.T) {
	store := failingCommitStore{Store: NewMemorySessionStore(), err: errors.New("store down")}
	srv := newTestServerWithSessions(t, newSQLiteRepo(t), nil, NewSessionManager(store, testSessionsConfig()))
	audit := &recordingAudit{}
	srv.controller.WithAuditLog(audit)

	w := srv.do(t, http.MethodPost, "/register", `{"username":"sue","password":"1234"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodPost, "/login", `{"username":"sue","password":"1234"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"internal server error","code":"AUTH_LOGIN_FAILED"}`, w.Body.String())
	assert.Nil(t, sessionCookie(w), "an unsaved session must not be handed out")

	events := audit.all()
	require.Len(t, events, 2)
	assert.Equal(t, entities.AuditStatusFailed, events[1].Status)
	assert.Equal(t, "AUTH_LOGIN_FAILED", events[1].Reason)
}

func TestLogout_Anonymous(t *testing.T) {
	srv := newTestServer(t, newSQLiteRepo(t), nil)

	w := srv.do(t, http.MethodGet, "/logout", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"no session"}`, w.Body.String())
	assert.Empty(t, w.Header().Get("Set-Cookie"))
}

func TestRegister_IntegrityViolationReachesErrorHandler(t *testing.T) {
	repo := &memoryRepo{
		findOverride: func(users.Filter) []entities.User { return nil },
		addErr:       users.ErrDuplicateUsername,
	}
	srv := newTestServer(t, repo, nil)

	w := srv.do(t, http.MethodPost, "/register", `{"username":"sue","password":"1234"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"internal server error","code":"AUTH_INTEGRITY_VIOLATION"}`, w.Body.String())
}

func TestLogin_RateLimited(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     2,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
		CleanupInterval: time.Hour,
	})
	srv := newTestServer(t, newSQLiteRepo(t), limiter)
	srv.do(t, http.MethodPost, "/register", `{"username":"sue","password":"1234"}`, nil)

	for i := 0; i < 2; i++ {
		w := srv.do(t, http.MethodPost, "/login", `{"username":"sue","password":"wrong"}`, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := srv.do(t, http.MethodPost, "/login", `{"username":"sue","password":"1234"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"message":"Too many login attempts"}`, w.Body.String())
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Nil(t, sessionCookie(w))

	w = srv.do(t, http.MethodPost, "/login", `{"username":"bob","password":"1234"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "other usernames are not throttled")
}

func TestAuthController_AuditLog(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     1,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
		CleanupInterval: time.Hour,
	})
	srv := newTestServer(t, newSQLiteRepo(t), limiter)
	rec := &recordingAudit{}
	srv.controller.WithAuditLog(rec)

	srv.do(t, http.MethodPost, "/register", `{"username":"sue","password":"1234"}`, nil)
	srv.do(t, http.MethodPost, "/register", `{"username":"sue","password":"1234"}`, nil)
	cookie := sessionCookie(srv.do(t, http.MethodPost, "/login", `{"username":"sue","password":"1234"}`, nil))
	srv.do(t, http.MethodGet, "/logout", "", cookie)
	srv.do(t, http.MethodGet, "/logout", "", nil)
	srv.do(t, http.MethodPost, "/login", `{"username":"bob","password":"nope"}`, nil)
	srv.do(t, http.MethodPost, "/login", `{"username":"bob","password":"nope"}`, nil)

	events := rec.all()
	require.Len(t, events, 6, "anonymous logout is not audited")

	tests := []struct {
		action entities.AuthAction
		status entities.AuditStatus
		user   string
		reason string
		hasID  bool
	}{
		{entities.AuthActionRegister, entities.AuditStatusSuccess, "sue", "", true},
		{entities.AuthActionRegister, entities.AuditStatusFailed, "sue", MsgUsernameTaken, false},
		{entities.AuthActionLogin, entities.AuditStatusSuccess, "sue", "", true},
		{entities.AuthActionLogout, entities.AuditStatusSuccess, "sue", "", true},
		{entities.AuthActionLogin, entities.AuditStatusFailed, "bob", MsgInvalidCredentials, false},
		{entities.AuthActionLogin, entities.AuditStatusFailed, "bob", "Too many login attempts", false},
	}
	for i, want := range tests {
		got := events[i]
		assert.Equal(t, want.action, got.Action, "event %d", i)
		assert.Equal(t, want.status, got.Status, "event %d", i)
		assert.Equal(t, want.user, got.Username, "event %d", i)
		assert.Equal(t, want.reason, got.Reason, "event %d", i)
		assert.Equal(t, want.hasID, got.UserID != 0, "event %d", i)
		assert.NotEmpty(t, got.IPAddress, "event %d", i)
	}
}

func TestAuthController_AuditLogRecordsErrorCode(t *testing.T) {
	repo := &memoryRepo{
		findOverride: func(users.Filter) []entities.User { return nil },
		addErr:       users.ErrDuplicateUsername,
	}
	srv := newTestServer(t, repo, nil)
	rec := &recordingAudit{}
	srv.controller.WithAuditLog(rec)

	srv.do(t, http.MethodPost, "/register", `{"username":"sue","password":"1234"}`, nil)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, CodeIntegrityViolation, events[0].Reason)
}
