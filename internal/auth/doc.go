// Package auth implements session-based registration, login and logout.
//
// Requests flow through three layers:
//
//   - Validator stages inspect the credentials and either pass or return a
//     Rejection with a fixed status and message.
//   - Service hashes and compares passwords, talks to the user repository and
//     mutates the Session it is handed.
//   - AuthController binds JSON bodies, writes rejections as responses and
//     forwards every other error to ErrorHandler.
//
// # Usage
//
//	hasher, _ := auth.NewPasswordHasher(cfg.Auth)
//	svc, _ := auth.NewService(repo, hasher, auth.WithLogger(logger))
//	sessions := auth.NewSessionManager(store, cfg.Sessions)
//
//	router.Use(sessions.SessionLoadSave(), auth.ErrorHandler(logger))
//	auth.NewAuthController(svc, sessions, nil).RegisterRoutes(router.Group("/api/auth"))
//
// Session cookies are HttpOnly and, unless SESSION_SECURE_COOKIES=false,
// HTTPS only. The principal stored in the session is the user id and
// username; the password hash never leaves the user store.
package auth
