package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/sessionauth/internal/entities"
)

const defaultPageSize = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// GetEvents returns the most recent events, newest first. An empty username
// returns events for everyone.
func (r *Repository) GetEvents(ctx context.Context, username string, limit int) ([]entities.AuditEvent, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := r.db.WithContext(ctx).Model(&entities.AuditEvent{})
	if username != "" {
		query = query.Where("username = ?", username)
	}

	var events []entities.AuditEvent
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error
	return events, err
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
