package auth

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/sessionauth/internal/database/users"
	"github.com/mrlokans/sessionauth/internal/entities"
)

const (
	minPasswordChars = 4
	maxPasswordBytes = 72 // bcrypt input limit
	maxUsernameChars = 100
)

// Credentials are the username and plaintext password submitted with a
// register or login request.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserFinder is the read side of the user repository.
type UserFinder interface {
	FindBy(ctx context.Context, filter users.Filter) ([]entities.User, error)
}

// Stage inspects credentials before an operation runs. A nil Rejection and a
// nil error mean the request may proceed. Errors are infrastructure failures,
// never validation results.
type Stage func(ctx context.Context, creds Credentials) (*Rejection, error)

// RunStages runs stages in order and stops at the first rejection or error.
func RunStages(ctx context.Context, creds Credentials, stages ...Stage) (*Rejection, error) {
	for _, stage := range stages {
		rejection, err := stage(ctx, creds)
		if err != nil || rejection != nil {
			return rejection, err
		}
	}
	return nil, nil
}

// CheckPasswordLength rejects passwords of three characters or fewer.
func CheckPasswordLength(_ context.Context, creds Credentials) (*Rejection, error) {
	if utf8.RuneCountInString(creds.Password) < minPasswordChars {
		return reject(http.StatusUnprocessableEntity, MsgPasswordTooShort), nil
	}
	return nil, nil
}

// CheckPasswordMaxBytes rejects passwords that bcrypt would refuse to hash.
func CheckPasswordMaxBytes(_ context.Context, creds Credentials) (*Rejection, error) {
	if len(creds.Password) > maxPasswordBytes {
		return reject(http.StatusUnprocessableEntity, MsgPasswordTooLong), nil
	}
	return nil, nil
}

// CheckUsernamePresent rejects empty or whitespace-only usernames.
func CheckUsernamePresent(_ context.Context, creds Credentials) (*Rejection, error) {
	if strings.TrimSpace(creds.Username) == "" {
		return reject(http.StatusUnprocessableEntity, MsgUsernameRequired), nil
	}
	return nil, nil
}

// CheckUsernameMaxLength rejects usernames longer than the users.username
// column.
func CheckUsernameMaxLength(_ context.Context, creds Credentials) (*Rejection, error) {
	if utf8.RuneCountInString(creds.Username) > maxUsernameChars {
		return reject(http.StatusUnprocessableEntity, MsgUsernameTooLong), nil
	}
	return nil, nil
}

// Validator holds the stages that need the user repository.
type Validator struct {
	users     UserFinder
	hasher    PasswordHasher
	dummyHash string
}

// NewValidator builds a validator. The hasher produces a throwaway hash that
// unknown-username logins are compared against, so that they take as long as
// a wrong password for an existing user.
func NewValidator(finder UserFinder, hasher PasswordHasher) (*Validator, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &Validator{users: finder, hasher: hasher, dummyHash: dummy}, nil
}

// CheckUsernameFree rejects registration of a username that already exists.
func (v *Validator) CheckUsernameFree(ctx context.Context, creds Credentials) (*Rejection, error) {
	found, err := v.users.FindBy(ctx, users.ByUsername(creds.Username))
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return reject(http.StatusUnprocessableEntity, MsgUsernameTaken), nil
	}
	return nil, nil
}

// CheckUsernameExists rejects logins for unknown usernames with the same
// response as a wrong password.
func (v *Validator) CheckUsernameExists(ctx context.Context, creds Credentials) (*Rejection, error) {
	found, err := v.users.FindBy(ctx, users.ByUsername(creds.Username))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		_, _ = v.hasher.Compare(creds.Password, v.dummyHash)
		return invalidCredentials(), nil
	}
	return nil, nil
}

// RegisterStages returns the register pipeline: cheap local checks first,
// then the repository lookup.
func (v *Validator) RegisterStages() []Stage {
	return []Stage{
		CheckPasswordLength,
		CheckPasswordMaxBytes,
		CheckUsernamePresent,
		CheckUsernameMaxLength,
		v.CheckUsernameFree,
	}
}

// LoginStages returns the login pipeline.
func (v *Validator) LoginStages() []Stage {
	return []Stage{v.CheckUsernameExists}
}
