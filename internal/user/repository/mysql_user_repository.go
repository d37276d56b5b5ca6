// Package repository provides data persistence implementations for user entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/database"
	"github.com/allisson/envstore/internal/user/domain"

	apperrors "github.com/allisson/envstore/internal/errors"
)

// MySQLUserRepository handles user persistence for MySQL.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{
		db: db,
	}
}

// Create inserts a new user.
func (r *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, email, full_name, password, provider, provider_id, avatar, deleted, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, false, NOW(), NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	uuidBytes, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		uuidBytes, user.Email, user.FullName, user.Password, user.Provider, user.ProviderID, user.Avatar,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID. Soft-deleted users are not returned.
func (r *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, full_name, password, provider, provider_id, avatar, deleted, created_at, updated_at
			  FROM users WHERE id = ? AND deleted = false`

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return r.scanUser(querier.QueryRowContext(ctx, query, uuidBytes), "failed to get user by id")
}

// GetByEmail retrieves a user by email. Soft-deleted users are not returned.
func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, full_name, password, provider, provider_id, avatar, deleted, created_at, updated_at
			  FROM users WHERE email = ? AND deleted = false`

	return r.scanUser(querier.QueryRowContext(ctx, query, email), "failed to get user by email")
}

// SoftDelete marks a user as deleted, keeping the row.
func (r *MySQLUserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET deleted = true, updated_at = NOW() WHERE id = ? AND deleted = false`

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, uuidBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// scanUser scans a single user row, converting the BINARY(16) id back to a UUID.
func (r *MySQLUserRepository) scanUser(row *sql.Row, wrapMsg string) (*domain.User, error) {
	var user domain.User
	var idBytes []byte

	err := row.Scan(
		&idBytes, &user.Email, &user.FullName, &user.Password,
		&user.Provider, &user.ProviderID, &user.Avatar, &user.Deleted,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, wrapMsg)
	}

	if err := user.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &user, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
