// Package repository provides data persistence implementations for API token entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/apitoken/domain"
	"github.com/allisson/envstore/internal/database"

	apperrors "github.com/allisson/envstore/internal/errors"
)

const postgresAPITokenColumns = `id, token, name, user_id, created_at, updated_at`

// PostgreSQLAPITokenRepository handles API token persistence for PostgreSQL.
type PostgreSQLAPITokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLAPITokenRepository creates a new PostgreSQLAPITokenRepository.
func NewPostgreSQLAPITokenRepository(db *sql.DB) *PostgreSQLAPITokenRepository {
	return &PostgreSQLAPITokenRepository{
		db: db,
	}
}

// Create inserts a new API token.
func (r *PostgreSQLAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO api_tokens (id, token, name, user_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, token.ID, token.Token, token.Name, token.UserID)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrAPITokenNameTaken
		}
		return apperrors.Wrap(err, "failed to create api token")
	}
	return nil
}

// GetByIDAndUser retrieves a token by ID filtered by owner.
func (r *PostgreSQLAPITokenRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.APIToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresAPITokenColumns + ` FROM api_tokens WHERE id = $1 AND user_id = $2`

	return scanPostgresAPIToken(querier.QueryRowContext(ctx, query, id, userID), "failed to get api token by id and user")
}

// GetByToken retrieves a token by its exact secret value.
func (r *PostgreSQLAPITokenRepository) GetByToken(ctx context.Context, token string) (*domain.APIToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresAPITokenColumns + ` FROM api_tokens WHERE token = $1`

	return scanPostgresAPIToken(querier.QueryRowContext(ctx, query, token), "failed to get api token by token")
}

// GetByNameAndUser retrieves a token by normalized name filtered by owner.
func (r *PostgreSQLAPITokenRepository) GetByNameAndUser(ctx context.Context, name string, userID uuid.UUID) (*domain.APIToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresAPITokenColumns + ` FROM api_tokens WHERE name = $1 AND user_id = $2`

	return scanPostgresAPIToken(querier.QueryRowContext(ctx, query, name, userID), "failed to get api token by name and user")
}

// ListByUser retrieves the user's tokens, newest first.
func (r *PostgreSQLAPITokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.APIToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresAPITokenColumns + ` FROM api_tokens
			  WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api tokens")
	}
	defer rows.Close()

	tokens := []*domain.APIToken{}
	for rows.Next() {
		var token domain.APIToken
		err := rows.Scan(&token.ID, &token.Token, &token.Name, &token.UserID, &token.CreatedAt, &token.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan api token")
		}
		tokens = append(tokens, &token)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate api tokens")
	}

	return tokens, nil
}

// Delete removes a token row.
func (r *PostgreSQLAPITokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM api_tokens WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete api token")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrAPITokenNotFound
	}

	return nil
}

// scanPostgresAPIToken scans a single api token row.
func scanPostgresAPIToken(row *sql.Row, wrapMsg string) (*domain.APIToken, error) {
	var token domain.APIToken

	err := row.Scan(&token.ID, &token.Token, &token.Name, &token.UserID, &token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAPITokenNotFound
		}
		return nil, apperrors.Wrap(err, wrapMsg)
	}

	return &token, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
