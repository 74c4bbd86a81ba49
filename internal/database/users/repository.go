// Package users provides database operations for user records.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.Add(ctx, &entities.User{Username: "sue", Password: hash})
//	found, err := repo.FindBy(ctx, users.ByUsername("sue"))
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/mrlokans/sessionauth/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts a user and returns the stored record with its assigned ID.
func (r *Repository) Add(ctx context.Context, user *entities.User) (*entities.User, error) {
	record := &entities.User{
		Username: user.Username,
		Password: user.Password,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user %q: %w", user.Username, errors.Join(ErrDuplicateUsername, err))
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return record, nil
}

// FindBy returns every user matching the filter, ordered by ID.
// An empty filter returns all users.
func (r *Repository) FindBy(ctx context.Context, filter Filter) ([]entities.User, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&entities.User{})
	if len(filter) > 0 {
		query = query.Where(map[string]any(filter))
	}

	var found []entities.User
	if err := query.Order("id").Find(&found).Error; err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return found, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
