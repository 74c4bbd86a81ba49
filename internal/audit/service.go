// Package audit records register, login and logout attempts.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/sessionauth/internal/entities"
)

const (
	maxUserAgentLen = 500
	maxReasonLen    = 200
	writeTimeout    = 5 * time.Second
)

// Store persists audit events.
type Store interface {
	LogEvent(ctx context.Context, event *entities.AuditEvent) error
	GetEvents(ctx context.Context, username string, limit int) ([]entities.AuditEvent, error)
	DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// Service provides high-level audit logging functionality.
type Service struct {
	store  Store
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Log records an event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	event.UserAgent = truncate(event.UserAgent, maxUserAgentLen)
	event.Reason = truncate(event.Reason, maxReasonLen)
	return s.store.LogEvent(ctx, event)
}

// Record writes an event in the background so request latency does not
// depend on the audit table. The write outlives request cancellation.
func (s *Service) Record(ctx context.Context, event *entities.AuditEvent) {
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()
		if err := s.Log(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "failed to log audit event",
				"action", event.Action, "username", event.Username, "error", err)
		}
	}()
}

// Wait blocks until every pending Record has been written.
func (s *Service) Wait() {
	s.wg.Wait()
}

// GetEvents returns recent events for username, or for everyone when empty.
func (s *Service) GetEvents(ctx context.Context, username string, limit int) ([]entities.AuditEvent, error) {
	return s.store.GetEvents(ctx, username, limit)
}

// DeleteOldEvents removes events older than the retention period.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	return s.store.DeleteOldEvents(ctx, time.Now().Add(-retention))
}

// truncate limits s to maxLen bytes without splitting a UTF-8 sequence.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	suffix := "..."
	if maxLen <= len(suffix) {
		suffix = ""
	}
	cut := maxLen - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
