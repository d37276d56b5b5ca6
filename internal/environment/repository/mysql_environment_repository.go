// Package repository provides data persistence implementations for environment entities.
// Variable maps are stored as a JSON column and marshaled at this boundary.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/database"
	"github.com/allisson/envstore/internal/environment/domain"

	apperrors "github.com/allisson/envstore/internal/errors"
)

const mysqlEnvironmentColumns = `id, name, project_id, variables, created_at, updated_at`

// MySQLEnvironmentRepository handles environment persistence for MySQL.
type MySQLEnvironmentRepository struct {
	db *sql.DB
}

// NewMySQLEnvironmentRepository creates a new MySQLEnvironmentRepository.
func NewMySQLEnvironmentRepository(db *sql.DB) *MySQLEnvironmentRepository {
	return &MySQLEnvironmentRepository{
		db: db,
	}
}

// Create inserts a new environment.
func (r *MySQLEnvironmentRepository) Create(ctx context.Context, environment *domain.Environment) error {
	querier := database.GetTx(ctx, r.db)

	variables, err := marshalVariables(environment.Variables)
	if err != nil {
		return err
	}

	idBytes, err := environment.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	projectIDBytes, err := environment.ProjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO environments (id, name, project_id, variables, created_at, updated_at)
			  VALUES (?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query, idBytes, environment.Name, projectIDBytes, variables)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrEnvironmentNameTaken
		}
		return apperrors.Wrap(err, "failed to create environment")
	}
	return nil
}

// Get retrieves an environment by ID regardless of owner.
func (r *MySQLEnvironmentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Environment, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlEnvironmentColumns + ` FROM environments WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLEnvironment(querier.QueryRowContext(ctx, query, idBytes), "failed to get environment by id")
}

// GetByNameAndProject retrieves an environment by normalized name within a project.
func (r *MySQLEnvironmentRepository) GetByNameAndProject(ctx context.Context, name string, projectID uuid.UUID) (*domain.Environment, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlEnvironmentColumns + ` FROM environments WHERE name = ? AND project_id = ?`

	projectIDBytes, err := projectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLEnvironment(querier.QueryRowContext(ctx, query, name, projectIDBytes), "failed to get environment by name and project")
}

// ListByProject retrieves all environments of a project, newest first.
func (r *MySQLEnvironmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Environment, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlEnvironmentColumns + ` FROM environments
			  WHERE project_id = ? ORDER BY created_at DESC`

	projectIDBytes, err := projectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	rows, err := querier.QueryContext(ctx, query, projectIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list environments")
	}
	defer rows.Close()

	environments := []*domain.Environment{}
	for rows.Next() {
		var environment domain.Environment
		var idBytes, parentBytes, variables []byte
		err := rows.Scan(
			&idBytes, &environment.Name, &parentBytes,
			&variables, &environment.CreatedAt, &environment.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan environment")
		}
		if err := environment.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := environment.ProjectID.UnmarshalBinary(parentBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if environment.Variables, err = unmarshalVariables(variables); err != nil {
			return nil, err
		}
		environments = append(environments, &environment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate environments")
	}

	return environments, nil
}

// UpdateVariables replaces the variable map.
func (r *MySQLEnvironmentRepository) UpdateVariables(ctx context.Context, id uuid.UUID, variables map[string]string) error {
	querier := database.GetTx(ctx, r.db)

	payload, err := marshalVariables(variables)
	if err != nil {
		return err
	}

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE environments SET variables = ?, updated_at = NOW() WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, payload, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update environment variables")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrEnvironmentNotFound
	}

	return nil
}

// Delete removes an environment row.
func (r *MySQLEnvironmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM environments WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete environment")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return domain.ErrEnvironmentNotFound
	}

	return nil
}

// DeleteByProject removes all environments of a project and reports how many
// rows went away. Zero is not an error.
func (r *MySQLEnvironmentRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM environments WHERE project_id = ?`

	projectIDBytes, err := projectID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, projectIDBytes)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete environments by project")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return rows, nil
}

// scanMySQLEnvironment scans a single environment row, converting BINARY(16)
// ids back to UUIDs.
func scanMySQLEnvironment(row *sql.Row, wrapMsg string) (*domain.Environment, error) {
	var environment domain.Environment
	var idBytes, parentBytes, variables []byte

	err := row.Scan(
		&idBytes, &environment.Name, &parentBytes,
		&variables, &environment.CreatedAt, &environment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEnvironmentNotFound
		}
		return nil, apperrors.Wrap(err, wrapMsg)
	}

	if err := environment.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := environment.ProjectID.UnmarshalBinary(parentBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if environment.Variables, err = unmarshalVariables(variables); err != nil {
		return nil, err
	}

	return &environment, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
