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

const mysqlAPITokenColumns = `id, token, name, user_id, created_at, updated_at`

// MySQLAPITokenRepository handles API token persistence for MySQL.
type MySQLAPITokenRepository struct {
	db *sql.DB
}

// NewMySQLAPITokenRepository creates a new MySQLAPITokenRepository.
func NewMySQLAPITokenRepository(db *sql.DB) *MySQLAPITokenRepository {
	return &MySQLAPITokenRepository{
		db: db,
	}
}

// Create inserts a new API token.
func (r *MySQLAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO api_tokens (id, token, name, user_id, created_at, updated_at)
			  VALUES (?, ?, ?, ?, NOW(), NOW())`

	idBytes, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	userIDBytes, err := token.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query, idBytes, token.Token, token.Name, userIDBytes)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrAPITokenNameTaken
		}
		return apperrors.Wrap(err, "failed to create api token")
	}
	return nil
}

// GetByIDAndUser retrieves a token by ID filtered by owner.
func (r *MySQLAPITokenRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.APIToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlAPITokenColumns + ` FROM api_tokens WHERE id = ? AND user_id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}
	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLAPIToken(querier.QueryRowContext(ctx, query, idBytes, userIDBytes), "failed to get api token by id and user")
}

// GetByToken retrieves a token by its exact secret value.
func (r *MySQLAPITokenRepository) GetByToken(ctx context.Context, token string) (*domain.APIToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlAPITokenColumns + ` FROM api_tokens WHERE token = ?`

	return scanMySQLAPIToken(querier.QueryRowContext(ctx, query, token), "failed to get api token by token")
}

// GetByNameAndUser retrieves a token by normalized name filtered by owner.
func (r *MySQLAPITokenRepository) GetByNameAndUser(ctx context.Context, name string, userID uuid.UUID) (*domain.APIToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlAPITokenColumns + ` FROM api_tokens WHERE name = ? AND user_id = ?`

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLAPIToken(querier.QueryRowContext(ctx, query, name, userIDBytes), "failed to get api token by name and user")
}

// ListByUser retrieves the user's tokens, newest first.
func (r *MySQLAPITokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.APIToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlAPITokenColumns + ` FROM api_tokens
			  WHERE user_id = ? ORDER BY created_at DESC`

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	rows, err := querier.QueryContext(ctx, query, userIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api tokens")
	}
	defer rows.Close()

	tokens := []*domain.APIToken{}
	for rows.Next() {
		var token domain.APIToken
		var idBytes, ownerBytes []byte
		err := rows.Scan(&idBytes, &token.Token, &token.Name, &ownerBytes, &token.CreatedAt, &token.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan api token")
		}
		if err := token.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := token.UserID.UnmarshalBinary(ownerBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		tokens = append(tokens, &token)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate api tokens")
	}

	return tokens, nil
}

// Delete removes a token row.
func (r *MySQLAPITokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM api_tokens WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, idBytes)
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

// scanMySQLAPIToken scans a single api token row, converting BINARY(16) ids
// back to UUIDs.
func scanMySQLAPIToken(row *sql.Row, wrapMsg string) (*domain.APIToken, error) {
	var token domain.APIToken
	var idBytes, ownerBytes []byte

	err := row.Scan(&idBytes, &token.Token, &token.Name, &ownerBytes, &token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAPITokenNotFound
		}
		return nil, apperrors.Wrap(err, wrapMsg)
	}

	if err := token.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := token.UserID.UnmarshalBinary(ownerBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &token, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
