package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/mrlokans/sessionauth/internal/database/users"
	"github.com/mrlokans/sessionauth/internal/entities"
	"github.com/mrlokans/sessionauth/internal/metrics"
)

// Logout responses
const (
	MsgLoggedOut = "logged out"
	MsgNoSession = "no session"
)

// UserRepository is the user store the flow controller works against.
type UserRepository interface {
	UserFinder
	Add(ctx context.Context, user *entities.User) (*entities.User, error)
}

// Service orchestrates register, login and logout. It owns no session
// state: every operation that touches a session receives it explicitly.
type Service struct {
	users     UserRepository
	hasher    PasswordHasher
	validator *Validator
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new authentication service.
func NewService(repo UserRepository, hasher PasswordHasher, opts ...Option) (*Service, error) {
	validator, err := NewValidator(repo, hasher)
	if err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").With("operation", "dummy hash").Wrap(err)
	}

	s := &Service{
		users:     repo,
		hasher:    hasher,
		validator: validator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates the credentials, stores a new user with the hashed
// password and returns it without the hash. The session is not touched.
func (s *Service) Register(ctx context.Context, creds Credentials) (_ *entities.User, err error) {
	defer s.observe(ctx, "register", creds.Username, time.Now(), &err)

	rejection, err := RunStages(ctx, creds, s.validator.RegisterStages()...)
	if err != nil {
		return nil, oops.Code(CodeRegisterFailed).With("operation", "validate").Wrap(err)
	}
	if rejection != nil {
		return nil, rejection
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, oops.Code(CodeRegisterFailed).With("operation", "hash password").Wrap(err)
	}

	created, err := s.users.Add(ctx, &entities.User{Username: creds.Username, Password: hash})
	if errors.Is(err, users.ErrDuplicateUsername) {
		// Another request registered the name after CheckUsernameFree passed.
		return nil, oops.Code(CodeIntegrityViolation).
			With("username", creds.Username).
			Wrap(errors.Join(ErrIntegrityViolation, err))
	}
	if err != nil {
		return nil, oops.Code(CodeRegisterFailed).With("operation", "add user").Wrap(err)
	}

	public := created.Public()
	return &public, nil
}

// Login checks the credentials and records the user as the session's
// principal. A wrong password is a Rejection, not an error.
func (s *Service) Login(ctx context.Context, creds Credentials, session Session) (_ string, err error) {
	defer s.observe(ctx, "login", creds.Username, time.Now(), &err)

	rejection, err := RunStages(ctx, creds, s.validator.LoginStages()...)
	if err != nil {
		return "", oops.Code(CodeLoginFailed).With("operation", "validate").Wrap(err)
	}
	if rejection != nil {
		return "", rejection
	}

	found, err := s.users.FindBy(ctx, users.ByUsername(creds.Username))
	if err != nil {
		return "", oops.Code(CodeLoginFailed).With("operation", "find user").Wrap(err)
	}
	switch {
	case len(found) == 0:
		return "", invalidCredentials()
	case len(found) > 1:
		return "", oops.Code(CodeIntegrityViolation).
			With("username", creds.Username).
			With("matches", len(found)).
			Wrapf(ErrIntegrityViolation, "%d users share one username", len(found))
	}
	user := found[0]

	ok, err := s.hasher.Compare(creds.Password, user.Password)
	if err != nil {
		return "", oops.Code(CodeLoginFailed).
			With("operation", "compare password").
			With("user_id", user.ID).
			Wrap(err)
	}
	if !ok {
		return "", invalidCredentials()
	}

	principal := user.Public()
	if err := session.SetPrincipal(ctx, &principal); err != nil {
		return "", oops.Code(CodeLoginFailed).With("operation", "set principal").Wrap(err)
	}

	return fmt.Sprintf("Welcome %s!", user.Username), nil
}

// Logout clears an authenticated session. An anonymous session is left
// untouched and answered with MsgNoSession.
func (s *Service) Logout(ctx context.Context, session Session) (_ string, err error) {
	principal, ok := session.Principal(ctx)
	username := ""
	if ok {
		username = principal.Username
	}
	defer s.observe(ctx, "logout", username, time.Now(), &err)

	if !ok {
		return MsgNoSession, nil
	}
	if err := session.Clear(ctx); err != nil {
		return "", oops.Code(CodeLogoutFailed).With("user_id", principal.ID).Wrap(err)
	}
	return MsgLoggedOut, nil
}

// observe records the operation outcome. Errors are logged by the central
// error handler, so only successes and rejections are logged here.
func (s *Service) observe(ctx context.Context, operation, username string, start time.Time, errp *error) {
	outcome := metrics.OutcomeSuccess
	switch rejection, isRejection := AsRejection(*errp); {
	case isRejection:
		outcome = metrics.OutcomeRejected
		s.logger.InfoContext(ctx, "auth request rejected",
			"operation", operation,
			"username", username,
			"status", rejection.Status,
			"reason", rejection.Message)
	case *errp != nil:
		outcome = metrics.OutcomeError
	default:
		s.logger.DebugContext(ctx, "auth request succeeded", "operation", operation, "username", username)
	}
	s.metrics.ObserveAuth(operation, outcome, time.Since(start))
}
