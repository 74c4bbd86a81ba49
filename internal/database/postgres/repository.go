// Package postgres implements the user repository on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mrlokans/sessionauth/internal/database/users"
	"github.com/mrlokans/sessionauth/internal/entities"
)

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository stores users in the users table.
type UserRepository struct {
	pool Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// Add inserts a user and returns the stored record with its assigned ID.
func (r *UserRepository) Add(ctx context.Context, user *entities.User) (*entities.User, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id`,
		user.Username, user.Password,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("insert user %q: %w", user.Username, errors.Join(users.ErrDuplicateUsername, err))
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &entities.User{
		ID:       uint(id),
		Username: user.Username,
		Password: user.Password,
	}, nil
}

// FindBy returns every user matching the filter, ordered by ID.
func (r *UserRepository) FindBy(ctx context.Context, filter users.Filter) ([]entities.User, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query, args := buildSelect(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var found []entities.User
	for rows.Next() {
		var (
			id   int64
			user entities.User
		)
		if err := rows.Scan(&id, &user.Username, &user.Password); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.ID = uint(id)
		found = append(found, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return found, nil
}

// buildSelect renders the filter as positional equality conditions. Column
// names come from the validated whitelist, values are always bound.
func buildSelect(filter users.Filter) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT id, username, password FROM users`)

	for i, field := range filter.Fields() {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, filter[field])
		fmt.Fprintf(&sb, "%s = $%d", field, len(args))
	}
	sb.WriteString(" ORDER BY id")

	return sb.String(), args
}
