package auth

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/sessionauth/internal/database/users"
	"github.com/mrlokans/sessionauth/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

// memoryRepo is an in-memory UserRepository. findOverride and addErr let a
// test simulate storage states the validator cannot see.
type memoryRepo struct {
	mu      sync.Mutex
	records []entities.User

	findErr      error
	addErr       error
	findOverride func(filter users.Filter) []entities.User
}

func (r *memoryRepo) Add(_ context.Context, user *entities.User) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return nil, r.addErr
	}
	for _, existing := range r.records {
		if existing.Username == user.Username {
			return nil, users.ErrDuplicateUsername
		}
	}
	created := *user
	created.ID = uint(len(r.records) + 1)
	r.records = append(r.records, created)
	return &created, nil
}

func (r *memoryRepo) FindBy(_ context.Context, filter users.Filter) ([]entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.findOverride != nil {
		return r.findOverride(filter), nil
	}
	var out []entities.User
	for _, u := range r.records {
		if name, ok := filter["username"]; ok && u.Username != name {
			continue
		}
		if id, ok := filter["id"]; ok && u.ID != id {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// memorySession is a Session that lives for one test.
type memorySession struct {
	principal *entities.User
	setErr    error
	clearErr  error
	cleared   int
}

func (s *memorySession) Principal(context.Context) (*entities.User, bool) {
	return s.principal, s.principal != nil
}

func (s *memorySession) SetPrincipal(_ context.Context, user *entities.User) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.principal = user
	return nil
}

func (s *memorySession) Clear(context.Context) error {
	s.cleared++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.principal = nil
	return nil
}

// countingHasher records Compare calls.
type countingHasher struct {
	PasswordHasher
	mu       sync.Mutex
	compares []string
}

func (h *countingHasher) Compare(password, hash string) (bool, error) {
	h.mu.Lock()
	h.compares = append(h.compares, hash)
	h.mu.Unlock()
	return h.PasswordHasher.Compare(password, hash)
}

// recordingAudit keeps audit events in memory.
type recordingAudit struct {
	mu     sync.Mutex
	events []entities.AuditEvent
}

func (r *recordingAudit) Record(_ context.Context, event *entities.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
}

func (r *recordingAudit) all() []entities.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.AuditEvent(nil), r.events...)
}
